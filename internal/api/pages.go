package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/gyaneshwarpardhi/bankpredict/internal/explain"
	"github.com/gyaneshwarpardhi/bankpredict/internal/predict"
)

//go:embed templates/*.html
var templateFS embed.FS

func parsePages() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type pageView struct {
	Title      string
	Result     string
	Positive   bool
	TopFactors []explain.Factor
}

func resultView(res *predict.Result, title string) pageView {
	return pageView{
		Title:      title,
		Result:     res.Label,
		Positive:   res.Positive,
		TopFactors: res.TopFactors,
	}
}

func (h *Handler) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, name, pageView{Title: title})
	}
}

// render executes into a buffer first so a template failure never leaves a half-written page.
func (h *Handler) render(w http.ResponseWriter, name string, view pageView) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, view); err != nil {
		h.logger.Error("render page", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
