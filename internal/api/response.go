package api

import (
	"encoding/json"
	"html"
	"net/http"

	"go.uber.org/zap"

	"github.com/gyaneshwarpardhi/bankpredict/internal/form"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writePredictionError answers a failed form prediction with "<prefix>: <err>" as plain
// text. Validation failures are 400, everything else 500. Markup echoed back from form
// values is stripped.
func (h *Handler) writePredictionError(w http.ResponseWriter, r *http.Request, prefix string, err error) {
	status := http.StatusInternalServerError
	if form.IsValidation(err) {
		status = http.StatusBadRequest
	}
	msg := html.UnescapeString(h.sanitizer.Sanitize(err.Error()))
	if status == http.StatusInternalServerError {
		h.logger.Error(prefix, zap.String("path", r.URL.Path), zap.String("request_id", requestID(r.Context())), zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(prefix + ": " + msg))
}
