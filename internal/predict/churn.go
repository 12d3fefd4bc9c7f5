package predict

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gyaneshwarpardhi/bankpredict/internal/artifact"
	"github.com/gyaneshwarpardhi/bankpredict/internal/feature"
	"github.com/gyaneshwarpardhi/bankpredict/internal/form"
)

const (
	LabelChurn = "Customer is likely to churn"
	LabelStay  = "Customer is likely to stay"
)

// ChurnLabel returns the label shown for a churn prediction.
func ChurnLabel(positive bool) string {
	if positive {
		return LabelChurn
	}
	return LabelStay
}

// Churn predicts whether the customer described by req is likely to leave.
func (s *Service) Churn(ctx context.Context, req form.ChurnRequest) (*Result, error) {
	const name = artifact.ModelChurn
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set, err := s.current(name)
	if err != nil {
		return nil, err
	}
	opts := s.tuning.Load()
	key := cacheKey(name, set.Version, opts.gen, req)
	if res, ok := s.serveCached(ctx, name, key, start); ok {
		return res, nil
	}

	b := set.Churn
	eng := feature.EngineerChurn(req, opts.Churn)

	scaled, err := b.Scaler.Apply(eng.Numeric())
	if err != nil {
		return nil, s.fail(name, "transform", err)
	}
	vec := scaled.
		Concat(eng.Flags()).
		Concat(b.Vectorizer.Transform(eng.Categories))
	row, report := feature.Align(vec, b.Schema)

	p, factors, kind, err := score(b.Model, row, opts.TopN)
	if err != nil {
		return nil, s.fail(name, kind, err)
	}
	positive := p > opts.ChurnThreshold
	res := &Result{
		Model:           name,
		Label:           ChurnLabel(positive),
		Positive:        positive,
		Probability:     p,
		TopFactors:      factors,
		Alignment:       report,
		Features:        row.Map(),
		ArtifactVersion: set.Version,
	}
	s.logger.Debug("churn prediction",
		zap.String("categories", eng.Categories),
		zap.Float64("probability", p),
	)
	s.finish(ctx, key, res, start)
	return res, nil
}
