package predict

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gyaneshwarpardhi/bankpredict/internal/artifact"
	"github.com/gyaneshwarpardhi/bankpredict/internal/audit"
	"github.com/gyaneshwarpardhi/bankpredict/internal/explain"
	"github.com/gyaneshwarpardhi/bankpredict/internal/feature"
	"github.com/gyaneshwarpardhi/bankpredict/internal/form"
	"github.com/gyaneshwarpardhi/bankpredict/internal/metrics"
	"github.com/gyaneshwarpardhi/bankpredict/internal/model"
)

type staticSource struct{ set *artifact.Set }

func (s staticSource) Current() *artifact.Set { return s.set }

type fakeRecorder struct {
	mu      sync.Mutex
	records []audit.Record
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, r audit.Record) (audit.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return r, f.err
}

func loadDemo(t *testing.T) *artifact.Set {
	t.Helper()
	set, err := artifact.Load("../../artifacts", model.DefaultRegistry())
	if err != nil {
		t.Fatalf("load demo artifacts: %v", err)
	}
	return set
}

func newService(t *testing.T, set *artifact.Set, rec Recorder, cacheSize int) *Service {
	t.Helper()
	s, err := New(Deps{
		Artifacts: staticSource{set},
		Recorder:  rec,
		CacheSize: cacheSize,
		Options:   DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func exampleChurn() form.ChurnRequest {
	return form.ChurnRequest{
		Gender: "Female", Geography: "France", MaritalStatus: "Single",
		Age: 35, Tenure: 5, Balance: 50000, NumOfProducts: 2,
		EstimatedSalary: 60000, CreditScore: 650, HasCrCard: 1, IsActiveMember: 1,
	}
}

func exampleLoan() form.LoanRequest {
	return form.LoanRequest{
		Gender: "Male", Married: "Yes", Dependents: 3, Education: "Graduate",
		SelfEmployed: "No", ApplicantIncome: 5000, CoapplicantIncome: 1500,
		LoanAmount: 120, LoanAmountTerm: 360, CreditHistory: 1, PropertyArea: "Urban",
	}
}

func TestChurnExample(t *testing.T) {
	set := loadDemo(t)
	rec := &fakeRecorder{}
	s := newService(t, set, rec, 0)

	res, err := s.Churn(context.Background(), exampleChurn())
	if err != nil {
		t.Fatalf("Churn: %v", err)
	}
	if res.Label != LabelChurn && res.Label != LabelStay {
		t.Fatalf("label = %q", res.Label)
	}
	if res.Positive != (res.Label == LabelChurn) {
		t.Fatalf("label %q disagrees with positive=%v", res.Label, res.Positive)
	}
	if res.Probability <= 0 || res.Probability >= 1 {
		t.Fatalf("probability = %v", res.Probability)
	}
	if len(res.Features) != len(set.Churn.Schema) {
		t.Fatalf("aligned width = %d, schema = %d", len(res.Features), len(set.Churn.Schema))
	}
	if len(res.Alignment.Padded) != 0 || len(res.Alignment.Dropped) != 0 {
		t.Fatalf("demo schema should align exactly, got %+v", res.Alignment)
	}
	if len(res.TopFactors) != explain.DefaultTopN {
		t.Fatalf("top factors = %+v", res.TopFactors)
	}
	for i := 1; i < len(res.TopFactors); i++ {
		if math.Abs(res.TopFactors[i].Value) > math.Abs(res.TopFactors[i-1].Value) {
			t.Fatalf("factors not ranked: %+v", res.TopFactors)
		}
	}
	// Scaled EMI_Amount: (50000/12 - mean) / scale.
	wantEMI := (50000.0/12 - 6373.82) / 5199.78
	if got := res.Features["EMI_Amount"]; math.Abs(got-wantEMI) > 1e-9 {
		t.Fatalf("EMI_Amount = %v, want %v", got, wantEMI)
	}
	if len(rec.records) != 1 || rec.records[0].Model != artifact.ModelChurn {
		t.Fatalf("audit records = %+v", rec.records)
	}
}

func TestChurnReportsSchemaMismatch(t *testing.T) {
	set := loadDemo(t)
	churn := *set.Churn
	schema := append(feature.Schema(nil), churn.Schema...)
	schema[len(schema)-1] = "Customer_Segment"
	churn.Schema = schema
	patched := *set
	patched.Churn = &churn

	res, err := newService(t, &patched, nil, 0).Churn(context.Background(), exampleChurn())
	if err != nil {
		t.Fatalf("Churn: %v", err)
	}
	want := feature.AlignReport{Padded: []string{"Customer_Segment"}, Dropped: []string{"yes"}}
	if diff := cmp.Diff(want, res.Alignment); diff != "" {
		t.Fatalf("alignment (-want +got):\n%s", diff)
	}
	if res.Features["Customer_Segment"] != feature.PadValue {
		t.Fatalf("padded column = %v", res.Features["Customer_Segment"])
	}
}

func TestLoanApproved(t *testing.T) {
	s := newService(t, loadDemo(t), nil, 0)

	res, err := s.Loan(context.Background(), exampleLoan())
	if err != nil {
		t.Fatalf("Loan: %v", err)
	}
	// margin = 0.2 + 1.2 + 0.3
	if want := "Loan Approved (Probability: 84.55%)"; res.Label != want {
		t.Fatalf("label = %q, want %q", res.Label, want)
	}
	want := []explain.Factor{
		{Name: "Credit_History", Value: 0.42},
		{Name: "Loan_Amount_to_Income", Value: 0.4},
		{Name: "Total_Income", Value: 0.18},
		{Name: "Property_Area", Value: 0.1},
		{Name: "Gender", Value: 0},
	}
	if diff := cmp.Diff(want, res.TopFactors, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("top factors (-want +got):\n%s", diff)
	}
}

func TestLoanNotApproved(t *testing.T) {
	s := newService(t, loadDemo(t), nil, 0)
	req := exampleLoan()
	req.CreditHistory = 0

	res, err := s.Loan(context.Background(), req)
	if err != nil {
		t.Fatalf("Loan: %v", err)
	}
	if want := "Loan Not Approved (Probability: 18.24%)"; res.Label != want {
		t.Fatalf("label = %q, want %q", res.Label, want)
	}
	if res.Positive {
		t.Fatal("positive should be false")
	}
}

func TestLoanZeroTerm(t *testing.T) {
	s := newService(t, loadDemo(t), nil, 0)
	req := exampleLoan()
	req.LoanAmountTerm = 0
	res, err := s.Loan(context.Background(), req)
	if err != nil {
		t.Fatalf("Loan: %v", err)
	}
	if res.Features["EMI"] != 0 {
		t.Fatalf("EMI = %v", res.Features["EMI"])
	}
}

func TestCacheServesRepeatRequests(t *testing.T) {
	rec := &fakeRecorder{}
	s := newService(t, loadDemo(t), rec, 16)
	ctx := context.Background()

	first, err := s.Loan(ctx, exampleLoan())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Loan(ctx, exampleLoan())
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !second.Cached {
		t.Fatalf("cached flags = %v/%v", first.Cached, second.Cached)
	}
	if second.Label != first.Label {
		t.Fatalf("cached label %q != %q", second.Label, first.Label)
	}
	if len(rec.records) != 2 {
		t.Fatalf("every served prediction is audited, got %d records", len(rec.records))
	}
}

func TestSetOptionsChangesThresholdAndPurgesCache(t *testing.T) {
	s := newService(t, loadDemo(t), nil, 16)
	ctx := context.Background()
	if _, err := s.Loan(ctx, exampleLoan()); err != nil {
		t.Fatal(err)
	}

	opts := s.Options()
	opts.LoanThreshold = 0.9
	s.SetOptions(opts)

	res, err := s.Loan(ctx, exampleLoan())
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Fatal("SetOptions should purge the cache")
	}
	if want := "Loan Not Approved (Probability: 84.55%)"; res.Label != want {
		t.Fatalf("label = %q, want %q", res.Label, want)
	}
}

// hookModel runs hook before delegating each prediction.
type hookModel struct {
	model.Model
	hook func()
}

func (m hookModel) PredictProba(row []float64) (float64, error) {
	m.hook()
	return m.Model.PredictProba(row)
}

func TestSetOptionsDuringPredictionDoesNotCacheStaleResult(t *testing.T) {
	set := loadDemo(t)
	loan := *set.Loan
	patched := *set
	patched.Loan = &loan

	s := newService(t, &patched, nil, 16)
	var once sync.Once
	loan.Model = hookModel{Model: set.Loan.Model, hook: func() {
		once.Do(func() {
			opts := s.Options()
			opts.LoanThreshold = 0.99
			s.SetOptions(opts)
		})
	}}
	ctx := context.Background()

	if _, err := s.Loan(ctx, exampleLoan()); err != nil {
		t.Fatal(err)
	}
	res, err := s.Loan(ctx, exampleLoan())
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Fatal("result computed under replaced options was served from the cache")
	}
	if want := "Loan Not Approved (Probability: 84.55%)"; res.Label != want || res.Positive {
		t.Fatalf("label = %q positive = %v, want %q", res.Label, res.Positive, want)
	}
}

func TestCachedResultsAreIsolatedFromCallers(t *testing.T) {
	s := newService(t, loadDemo(t), nil, 16)
	ctx := context.Background()

	first, err := s.Loan(ctx, exampleLoan())
	if err != nil {
		t.Fatal(err)
	}
	wantLabel, wantFactor := first.Label, first.TopFactors[0].Name
	first.Label = "changed"
	first.TopFactors[0].Name = "changed"
	first.Features["EMI"] = -1

	second, err := s.Loan(ctx, exampleLoan())
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Fatal("second request should be a cache hit")
	}
	if second.Label != wantLabel || second.TopFactors[0].Name != wantFactor || second.Features["EMI"] == -1 {
		t.Fatalf("cache entry was modified through the first result: %+v", second)
	}

	second.TopFactors[0].Name = "changed again"
	third, err := s.Loan(ctx, exampleLoan())
	if err != nil {
		t.Fatal(err)
	}
	if third.TopFactors[0].Name != wantFactor {
		t.Fatalf("cache entry was modified through a cached result: %+v", third.TopFactors)
	}
}

func TestCacheHitsCountAsServedPredictions(t *testing.T) {
	s := newService(t, loadDemo(t), nil, 16)
	ctx := context.Background()
	served := metrics.Predictions.WithLabelValues(artifact.ModelLoan, "positive")
	before := testutil.ToFloat64(served)

	for i := 0; i < 3; i++ {
		if _, err := s.Loan(ctx, exampleLoan()); err != nil {
			t.Fatal(err)
		}
	}
	if got := testutil.ToFloat64(served) - before; got != 3 {
		t.Fatalf("predictions counted = %v, want 3", got)
	}
}

func TestPurgeDropsMemoizedResults(t *testing.T) {
	s := newService(t, loadDemo(t), nil, 16)
	ctx := context.Background()
	if _, err := s.Churn(ctx, exampleChurn()); err != nil {
		t.Fatal(err)
	}
	s.Purge()
	res, err := s.Churn(ctx, exampleChurn())
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Fatal("Purge should empty the cache")
	}
}

func TestNoArtifacts(t *testing.T) {
	s := newService(t, nil, nil, 0)
	if _, err := s.Churn(context.Background(), exampleChurn()); !errors.Is(err, ErrNoArtifacts) {
		t.Fatalf("Churn err = %v", err)
	}
	if _, err := s.Loan(context.Background(), exampleLoan()); !errors.Is(err, ErrNoArtifacts) {
		t.Fatalf("Loan err = %v", err)
	}
}

func TestAuditFailureDoesNotFailPrediction(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	s := newService(t, loadDemo(t), rec, 0)
	if _, err := s.Churn(context.Background(), exampleChurn()); err != nil {
		t.Fatalf("Churn: %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	s := newService(t, loadDemo(t), nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Churn(ctx, exampleChurn()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoanLabel(t *testing.T) {
	cases := []struct {
		approved bool
		p        float64
		want     string
	}{
		{true, 0.7345, "Loan Approved (Probability: 73.45%)"},
		{false, 0.12, "Loan Not Approved (Probability: 12.00%)"},
		{false, 0, "Loan Not Approved (Probability: 0.00%)"},
	}
	for _, tc := range cases {
		if got := LoanLabel(tc.approved, tc.p); got != tc.want {
			t.Errorf("LoanLabel(%v, %v) = %q, want %q", tc.approved, tc.p, got, tc.want)
		}
	}
}

func TestOptionsFromConfigDefaults(t *testing.T) {
	got := DefaultOptions()
	if diff := cmp.Diff(feature.DefaultChurnDefaults(), got.Churn); diff != "" {
		t.Fatalf("churn defaults (-want +got):\n%s", diff)
	}
	if got.ChurnThreshold != 0.5 || got.LoanThreshold != 0.5 || got.TopN != 5 {
		t.Fatalf("options = %+v", got)
	}
}
