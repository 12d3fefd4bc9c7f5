package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Churn.Threshold != 0.5 || *cfg.Churn.SentimentDefault != 0.5 {
		t.Errorf("churn defaults = %+v", cfg.Churn)
	}
	want := CategoryDefaults{
		NativePlace: "Chennai", AccountType: "Savings", LoanStatus: "Yes",
		BranchCode: "101", ReviewSentiment: "Happy",
	}
	if diff := cmp.Diff(want, cfg.Churn.CategoryDefaults); diff != "" {
		t.Errorf("category defaults (-want +got):\n%s", diff)
	}
	if cfg.Explain.TopN != 5 || *cfg.Cache.Size != 1024 {
		t.Errorf("explain/cache defaults = %d/%d", cfg.Explain.TopN, *cfg.Cache.Size)
	}
}

func TestParseKeepsExplicitZeros(t *testing.T) {
	cfg, err := Parse([]byte("churn:\n  sentiment_default: 0\ncache:\n  size: 0\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if *cfg.Churn.SentimentDefault != 0 {
		t.Errorf("sentiment_default = %v, want 0", *cfg.Churn.SentimentDefault)
	}
	if *cfg.Cache.Size != 0 {
		t.Errorf("cache.size = %v, want 0", *cfg.Cache.Size)
	}
}

func TestParseDurations(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  read_timeout: 2s\n  write_timeout: 1m\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.ReadTimeout != 2*time.Second || cfg.Server.WriteTimeout != time.Minute {
		t.Fatalf("timeouts = %v/%v", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}
}

func TestValidateCollectsEveryError(t *testing.T) {
	_, err := Parse([]byte(`
log:
  level: loud
  encoding: xml
churn:
  threshold: 1.5
loan:
  threshold: -0.2
explain:
  top_n: -1
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"log.level", "log.encoding", "churn.threshold", "loan.threshold", "explain.top_n"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s:\n%s", field, err)
		}
	}
}

func TestValidateReturnsOneErrorPerField(t *testing.T) {
	cfg := Default()
	cfg.Churn.Threshold = 0
	cfg.Loan.Threshold = 1
	cfg.Artifacts.Dir = ""

	errs := multierr.Errors(Validate(cfg))
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), errs)
	}
	for i, prefix := range []string{"churn.threshold", "loan.threshold", "artifacts.dir"} {
		if !strings.HasPrefix(errs[i].Error(), prefix) {
			t.Errorf("errs[%d] = %q, want prefix %q", i, errs[i], prefix)
		}
	}
	if err := Validate(Default()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoaderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("loan:\n  threshold: 0.6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if l.Config().Loan.Threshold != 0.6 {
		t.Fatalf("threshold = %v", l.Config().Loan.Threshold)
	}

	var seen float64
	l.OnChange(func(c *Config) { seen = c.Loan.Threshold })

	if err := os.WriteFile(path, []byte("loan:\n  threshold: 0.7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if seen != 0.7 || l.Config().Loan.Threshold != 0.7 {
		t.Fatalf("seen = %v, current = %v", seen, l.Config().Loan.Threshold)
	}

	if err := os.WriteFile(path, []byte("loan:\n  threshold: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
	if l.Config().Loan.Threshold != 0.7 {
		t.Fatal("invalid reload replaced the current config")
	}
}

func TestShippedConfigIsValid(t *testing.T) {
	l, err := NewLoader("../../configs/server.yaml")
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if !l.Config().Artifacts.Watch {
		t.Error("shipped config should watch artifacts")
	}
}
