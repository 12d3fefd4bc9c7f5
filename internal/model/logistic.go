package model

import (
	"encoding/json"
	"fmt"
)

// KindLogistic is the registry key of Logistic.
const KindLogistic = "logistic"

// Logistic is a binary logistic regression: margin = intercept + w·x.
type Logistic struct {
	intercept  float64
	coef       []float64
	background []float64
}

type logisticSpec struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Background   []float64 `json:"background,omitempty"`
}

// NewLogistic builds a Logistic. background holds the reference value of every column
// used by Attributions; nil means all zeros.
func NewLogistic(intercept float64, coef, background []float64) (*Logistic, error) {
	if len(coef) == 0 {
		return nil, fmt.Errorf("logistic: no coefficients")
	}
	if background == nil {
		background = make([]float64, len(coef))
	}
	if len(background) != len(coef) {
		return nil, fmt.Errorf("logistic: %d coefficients but %d background values", len(coef), len(background))
	}
	if !allFinite(coef) || !allFinite(background) || !allFinite([]float64{intercept}) {
		return nil, fmt.Errorf("logistic: parameters must be finite")
	}
	return &Logistic{
		intercept:  intercept,
		coef:       append([]float64(nil), coef...),
		background: append([]float64(nil), background...),
	}, nil
}

func decodeLogistic(raw json.RawMessage) (Model, error) {
	var s logisticSpec
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("logistic: %w", err)
	}
	return NewLogistic(s.Intercept, s.Coefficients, s.Background)
}

func (l *Logistic) Kind() string      { return KindLogistic }
func (l *Logistic) NumFeatures() int { return len(l.coef) }

// Margin returns the log-odds for row.
func (l *Logistic) Margin(row []float64) (float64, error) {
	if err := checkRow(len(l.coef), row); err != nil {
		return 0, err
	}
	m := l.intercept
	for i, w := range l.coef {
		m += w * row[i]
	}
	return m, nil
}

func (l *Logistic) PredictProba(row []float64) (float64, error) {
	m, err := l.Margin(row)
	if err != nil {
		return 0, err
	}
	return Sigmoid(m), nil
}

// Attributions returns w_j·(x_j − background_j) for every column. With the background
// set to the training means this is the exact Shapley value of a linear model.
func (l *Logistic) Attributions(row []float64) ([]float64, error) {
	if err := checkRow(len(l.coef), row); err != nil {
		return nil, err
	}
	out := make([]float64, len(row))
	for i, w := range l.coef {
		out[i] = w * (row[i] - l.background[i])
	}
	return out, nil
}
