package predict

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gyaneshwarpardhi/bankpredict/internal/artifact"
	"github.com/gyaneshwarpardhi/bankpredict/internal/feature"
	"github.com/gyaneshwarpardhi/bankpredict/internal/form"
)

// LoanLabel returns the label shown for a loan prediction, e.g.
// "Loan Approved (Probability: 73.45%)".
func LoanLabel(approved bool, p float64) string {
	verdict := "Loan Not Approved"
	if approved {
		verdict = "Loan Approved"
	}
	return fmt.Sprintf("%s (Probability: %.2f%%)", verdict, p*100)
}

// Loan predicts whether the application described by req is approved.
func (s *Service) Loan(ctx context.Context, req form.LoanRequest) (*Result, error) {
	const name = artifact.ModelLoan
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

	b := set.Loan
	eng := feature.EngineerLoan(req)

	cats, unknown := b.Encoder.Apply(eng.Categorical())
	if len(unknown) > 0 {
		s.logger.Warn("unseen loan categories, using encoder defaults", zap.Strings("columns", unknown))
	}
	row, report := feature.Align(cats.Concat(eng.Numeric()), b.Schema)
	s.logger.Debug("loan input features", zap.Any("features", row.Map()))

	p, factors, kind, err := score(b.Model, row, opts.TopN)
	if err != nil {
		return nil, s.fail(name, kind, err)
	}
	s.logger.Debug("predicted approval probability", zap.Float64("probability", p))

	approved := p > opts.LoanThreshold
	res := &Result{
		Model:           name,
		Label:           LoanLabel(approved, p),
		Positive:        approved,
		Probability:     p,
		TopFactors:      factors,
		Alignment:       report,
		Features:        row.Map(),
		ArtifactVersion: set.Version,
	}
	s.finish(ctx, key, res, start)
	return res, nil
}
