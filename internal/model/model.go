// Package model holds the classifiers served by the prediction flows and the
// explainability engine that attributes each prediction to its input columns.
//
// Every classifier consumes an aligned row: one float64 per schema column, in schema
// order. Margins are log-odds and probabilities are sigmoid(margin).
package model

import (
	"fmt"
	"math"
)

// Classifier predicts the positive-class probability for an aligned feature row.
type Classifier interface {
	// Kind returns the key the classifier is registered under.
	Kind() string
	// NumFeatures returns the row width the classifier was trained on.
	NumFeatures() int
	// PredictProba returns P(positive class | row).
	PredictProba(row []float64) (float64, error)
}

// Explainer attributes a prediction to the columns of its row. The returned slice is
// parallel to row and expressed in margin units.
type Explainer interface {
	Attributions(row []float64) ([]float64, error)
}

// Model is a classifier that can explain its own predictions.
type Model interface {
	Classifier
	Explainer
}

// Sigmoid maps a log-odds margin to a probability.
func Sigmoid(margin float64) float64 {
	return 1 / (1 + math.Exp(-margin))
}

func checkRow(want int, row []float64) error {
	if len(row) != want {
		return fmt.Errorf("model: expected %d features, got %d", want, len(row))
	}
	for i, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("model: feature %d is not finite (%v)", i, v)
		}
	}
	return nil
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
