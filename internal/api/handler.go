package api

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gyaneshwarpardhi/bankpredict/internal/artifact"
	"github.com/gyaneshwarpardhi/bankpredict/internal/audit"
	"github.com/gyaneshwarpardhi/bankpredict/internal/form"
	"github.com/gyaneshwarpardhi/bankpredict/internal/predict"
)

// Predictor runs the two inference flows.
type Predictor interface {
	Churn(ctx context.Context, req form.ChurnRequest) (*predict.Result, error)
	Loan(ctx context.Context, req form.LoanRequest) (*predict.Result, error)
}

// ArtifactStore exposes the active artifact set and forces reloads.
type ArtifactStore interface {
	Current() *artifact.Set
	Reload() (*artifact.Set, error)
}

// PredictionLog lists audited predictions.
type PredictionLog interface {
	Recent(ctx context.Context, model string, limit int) ([]audit.Record, error)
}

// Deps are the collaborators of the HTTP layer. Log may be nil when auditing is off.
type Deps struct {
	Predictor Predictor
	Artifacts ArtifactStore
	Log       PredictionLog
	Logger    *zap.Logger
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	predictor Predictor
	artifacts ArtifactStore
	log       PredictionLog
	logger    *zap.Logger
	pages     *template.Template
	sanitizer *bluemonday.Policy
	mux       *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(d Deps) (http.Handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		predictor: d.Predictor,
		artifacts: d.Artifacts,
		log:       d.Log,
		logger:    logger,
		pages:     pages,
		sanitizer: bluemonday.StrictPolicy(),
		mux:       http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /{$}", h.page("index.html", "Bank Predict"))
	h.mux.HandleFunc("GET /getstarted", h.page("getstarted.html", "Get started"))
	h.mux.HandleFunc("GET /churn", h.page("churn.html", "Customer churn"))
	h.mux.HandleFunc("GET /loan", h.page("loan.html", "Loan approval"))
	h.mux.HandleFunc("POST /predict_by_input", h.predictChurn)
	h.mux.HandleFunc("POST /predict_loan", h.predictLoan)
	h.mux.HandleFunc("GET /api/schema/{model}", h.schema)
	h.mux.HandleFunc("GET /api/predictions", h.predictions)
	h.mux.HandleFunc("POST /admin/reload", h.reloadArtifacts)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(logger, recoveryMiddleware(logger, h.mux)), nil
}

// POST /predict_by_input — churn prediction from the churn form.
func (h *Handler) predictChurn(w http.ResponseWriter, r *http.Request) {
	const prefix = "Error during prediction"
	if err := r.ParseForm(); err != nil {
		h.writePredictionError(w, r, prefix, &form.ValidationError{Form: "churn", Fields: []*form.FieldError{{Field: "body", Reason: err.Error()}}})
		return
	}
	req, err := form.ParseChurn(r.PostForm)
	if err != nil {
		h.writePredictionError(w, r, prefix, err)
		return
	}
	res, err := h.predictor.Churn(r.Context(), req)
	if err != nil {
		h.writePredictionError(w, r, prefix, err)
		return
	}
	h.render(w, "result.html", resultView(res, "Churn prediction"))
}

// POST /predict_loan — loan approval from the loan form.
func (h *Handler) predictLoan(w http.ResponseWriter, r *http.Request) {
	const prefix = "Error during loan prediction"
	if err := r.ParseForm(); err != nil {
		h.writePredictionError(w, r, prefix, &form.ValidationError{Form: "loan", Fields: []*form.FieldError{{Field: "body", Reason: err.Error()}}})
		return
	}
	req, err := form.ParseLoan(r.PostForm)
	if err != nil {
		h.writePredictionError(w, r, prefix, err)
		return
	}
	res, err := h.predictor.Loan(r.Context(), req)
	if err != nil {
		h.writePredictionError(w, r, prefix, err)
		return
	}
	h.render(w, "resultloan.html", resultView(res, "Loan prediction"))
}

// GET /api/schema/{model} — the ordered feature schema of a model.
func (h *Handler) schema(w http.ResponseWriter, r *http.Request) {
	set := h.artifacts.Current()
	if set == nil {
		writeError(w, http.StatusServiceUnavailable, predict.ErrNoArtifacts.Error())
		return
	}
	name := r.PathValue("model")
	schema, ok := set.Schema(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown model %q", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model":            name,
		"artifact_version": set.Version,
		"features":         schema,
	})
}

// GET /api/predictions?model=&limit= — recent audited predictions.
func (h *Handler) predictions(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeError(w, http.StatusNotFound, "prediction audit log is disabled")
		return
	}
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	records, err := h.log.Recent(r.Context(), q.Get("model"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(records),
		"predictions": records,
	})
}

// POST /admin/reload — reload model artifacts from disk.
func (h *Handler) reloadArtifacts(w http.ResponseWriter, r *http.Request) {
	set, err := h.artifacts.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":         true,
		"artifact_version": set.Version,
		"loaded_at":        set.LoadedAt,
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 until an artifact set is loaded.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	set := h.artifacts.Current()
	if set == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no artifacts"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ready",
		"artifact_version": set.Version,
	})
}
