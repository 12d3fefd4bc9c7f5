// Package predict runs the churn and loan inference flows over the active artifact set.
package predict

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/gyaneshwarpardhi/bankpredict/internal/artifact"
	"github.com/gyaneshwarpardhi/bankpredict/internal/audit"
	"github.com/gyaneshwarpardhi/bankpredict/internal/config"
	"github.com/gyaneshwarpardhi/bankpredict/internal/explain"
	"github.com/gyaneshwarpardhi/bankpredict/internal/feature"
	"github.com/gyaneshwarpardhi/bankpredict/internal/metrics"
	"github.com/gyaneshwarpardhi/bankpredict/internal/model"
)

// ErrNoArtifacts is returned while no artifact set has been loaded.
var ErrNoArtifacts = errors.New("no model artifacts loaded")

// ArtifactSource yields the artifact set to use for one request.
type ArtifactSource interface {
	Current() *artifact.Set
}

// Recorder persists served predictions.
type Recorder interface {
	Record(ctx context.Context, r audit.Record) (audit.Record, error)
}

// Options are the tunables of both flows.
type Options struct {
	Churn          feature.ChurnDefaults
	ChurnThreshold float64
	LoanThreshold  float64
	TopN           int
}

// OptionsFromConfig maps the churn, loan and explain config sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	d := cfg.Churn.CategoryDefaults
	churn := feature.ChurnDefaults{
		SentimentScore:  0.5,
		NativePlace:     d.NativePlace,
		AccountType:     d.AccountType,
		LoanStatus:      d.LoanStatus,
		BranchCode:      d.BranchCode,
		ReviewSentiment: d.ReviewSentiment,
	}
	if cfg.Churn.SentimentDefault != nil {
		churn.SentimentScore = *cfg.Churn.SentimentDefault
	}
	return Options{
		Churn:          churn,
		ChurnThreshold: cfg.Churn.Threshold,
		LoanThreshold:  cfg.Loan.Threshold,
		TopN:           cfg.Explain.TopN,
	}
}

// DefaultOptions mirrors the defaults of an empty config file.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// Result is the outcome of one prediction.
type Result struct {
	Model           string              `json:"model"`
	Label           string              `json:"label"`
	Positive        bool                `json:"positive"`
	Probability     float64             `json:"probability"`
	TopFactors      []explain.Factor    `json:"top_factors"`
	Alignment       feature.AlignReport `json:"alignment"`
	Features        map[string]float64  `json:"features"`
	ArtifactVersion string              `json:"artifact_version"`
	Cached          bool                `json:"cached"`
}

// clone returns a copy of r that shares no slices or maps with it.
func (r *Result) clone() *Result {
	out := *r
	out.TopFactors = slices.Clone(r.TopFactors)
	out.Alignment = feature.AlignReport{
		Padded:  slices.Clone(r.Alignment.Padded),
		Dropped: slices.Clone(r.Alignment.Dropped),
	}
	out.Features = maps.Clone(r.Features)
	return &out
}

// Deps are the collaborators of a Service. Recorder may be nil and CacheSize 0
// disables memoization.
type Deps struct {
	Artifacts ArtifactSource
	Recorder  Recorder
	Logger    *zap.Logger
	CacheSize int
	Options   Options
}

// Service runs predictions. It is safe for concurrent use.
type Service struct {
	artifacts ArtifactSource
	recorder  Recorder
	logger    *zap.Logger
	cache     *lru.Cache[string, *Result]
	tuning    atomic.Pointer[tuning]
	gen       atomic.Uint64
}

// tuning pairs Options with the generation they were installed under. The generation
// is part of every cache key, so results computed under replaced options never match.
type tuning struct {
	Options
	gen uint64
}

// New creates a Service.
func New(d Deps) (*Service, error) {
	if d.Artifacts == nil {
		return nil, fmt.Errorf("predict: artifact source is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{artifacts: d.Artifacts, recorder: d.Recorder, logger: logger}
	if d.CacheSize > 0 {
		c, err := lru.New[string, *Result](d.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("predict cache: %w", err)
		}
		s.cache = c
	}
	s.tuning.Store(&tuning{Options: d.Options})
	return s, nil
}

// Options returns the options currently in effect.
func (s *Service) Options() Options { return s.tuning.Load().Options }

// SetOptions replaces the options and drops memoized results computed under the old ones.
func (s *Service) SetOptions(o Options) {
	s.tuning.Store(&tuning{Options: o, gen: s.gen.Add(1)})
	s.Purge()
}

// Purge drops every memoized result.
func (s *Service) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *Service) current(name string) (*artifact.Set, error) {
	set := s.artifacts.Current()
	if set == nil {
		metrics.PredictionErrors.WithLabelValues(name, "no_artifacts").Inc()
		return nil, ErrNoArtifacts
	}
	return set, nil
}

func (s *Service) lookup(name, key string) (*Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	res, ok := s.cache.Get(key)
	if !ok {
		metrics.CacheMisses.WithLabelValues(name).Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues(name).Inc()
	out := res.clone()
	out.Cached = true
	return out, true
}

// observe counts a served prediction, memoized or not.
func observe(res *Result, start time.Time) {
	metrics.Predictions.WithLabelValues(res.Model, labelClass(res.Positive)).Inc()
	metrics.PredictionDuration.WithLabelValues(res.Model).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

// serveCached answers a request from the cache when possible.
func (s *Service) serveCached(ctx context.Context, name, key string, start time.Time) (*Result, bool) {
	res, ok := s.lookup(name, key)
	if !ok {
		return nil, false
	}
	observe(res, start)
	s.audit(ctx, res)
	return res, true
}

func (s *Service) fail(name, kind string, err error) error {
	metrics.PredictionErrors.WithLabelValues(name, kind).Inc()
	return err
}

// score runs the classifier and the explainer on an aligned row.
func score(m model.Model, row feature.Vector, topN int) (float64, []explain.Factor, string, error) {
	values := row.Values()
	p, err := m.PredictProba(values)
	if err != nil {
		return 0, nil, "model", err
	}
	attr, err := m.Attributions(values)
	if err != nil {
		return 0, nil, "explain", fmt.Errorf("explain: %w", err)
	}
	return p, explain.Top(row.Names(), attr, topN), "", nil
}

// finish records metrics, memoizes and audits a computed result.
func (s *Service) finish(ctx context.Context, key string, res *Result, start time.Time) {
	observe(res, start)
	metrics.PaddedColumns.WithLabelValues(res.Model).Add(float64(len(res.Alignment.Padded)))
	metrics.DroppedColumns.WithLabelValues(res.Model).Add(float64(len(res.Alignment.Dropped)))

	if len(res.Alignment.Padded) > 0 || len(res.Alignment.Dropped) > 0 {
		s.logger.Warn("feature schema mismatch",
			zap.String("model", res.Model),
			zap.Strings("padded", res.Alignment.Padded),
			zap.Strings("dropped", res.Alignment.Dropped),
		)
	}
	if s.cache != nil {
		s.cache.Add(key, res.clone())
	}
	s.audit(ctx, res)
}

func (s *Service) audit(ctx context.Context, res *Result) {
	if s.recorder == nil {
		return
	}
	_, err := s.recorder.Record(ctx, audit.Record{
		Model:           res.Model,
		Label:           res.Label,
		Positive:        res.Positive,
		Probability:     res.Probability,
		Features:        res.Features,
		TopFactors:      res.TopFactors,
		ArtifactVersion: res.ArtifactVersion,
	})
	if err != nil {
		s.logger.Warn("audit record failed", zap.String("model", res.Model), zap.Error(err))
	}
}

func labelClass(positive bool) string {
	if positive {
		return "positive"
	}
	return "negative"
}

func cacheKey(name, version string, gen uint64, req any) string {
	return fmt.Sprintf("%s|%s|%d|%#v", name, version, gen, req)
}
