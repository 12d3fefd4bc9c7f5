package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankpredict_predictions_total",
		Help: "Total number of predictions served, labelled by model and outcome label.",
	}, []string{"model", "label"})

	PredictionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankpredict_prediction_errors_total",
		Help: "Total number of failed predictions, labelled by model and error kind.",
	}, []string{"model", "kind"})

	PredictionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bankpredict_prediction_duration_ms",
		Help:    "End-to-end prediction latency in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	}, []string{"model"})

	PaddedColumns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankpredict_aligned_padded_columns_total",
		Help: "Schema columns filled with the pad value because the engineer did not produce them.",
	}, []string{"model"})

	DroppedColumns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankpredict_aligned_dropped_columns_total",
		Help: "Engineered columns discarded because the schema does not list them.",
	}, []string{"model"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankpredict_cache_hits_total",
		Help: "Predictions answered from the memoization cache.",
	}, []string{"model"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankpredict_cache_misses_total",
		Help: "Predictions computed because the memoization cache had no entry.",
	}, []string{"model"})

	ArtifactReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankpredict_artifact_reloads_total",
		Help: "Artifact set reload attempts, labelled by outcome (success|failure).",
	}, []string{"outcome"})

	ArtifactLoadedTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bankpredict_artifact_loaded_timestamp_seconds",
		Help: "Unix time at which the active artifact set was loaded.",
	})
)
