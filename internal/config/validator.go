package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// Validate checks a defaulted config and reports every problem at once. The returned
// error is a multierr chain; multierr.Errors splits it per field.
func Validate(cfg *Config) error {
	var errs error

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log.level: unknown level %q", cfg.Log.Level))
	}
	if cfg.Log.Encoding != "json" && cfg.Log.Encoding != "console" {
		errs = multierr.Append(errs, fmt.Errorf("log.encoding: must be json or console, got %q", cfg.Log.Encoding))
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		errs = multierr.Append(errs, errors.New("log: rotation limits must not be negative"))
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"read_timeout", cfg.Server.ReadTimeout},
		{"write_timeout", cfg.Server.WriteTimeout},
		{"idle_timeout", cfg.Server.IdleTimeout},
		{"shutdown_timeout", cfg.Server.ShutdownTimeout},
	}
	for _, to := range timeouts {
		if to.d < 0 {
			errs = multierr.Append(errs, fmt.Errorf("server.%s: must not be negative", to.name))
		}
	}

	if t := cfg.Churn.Threshold; t <= 0 || t >= 1 {
		errs = multierr.Append(errs, fmt.Errorf("churn.threshold: must be in (0, 1), got %v", t))
	}
	if s := cfg.Churn.SentimentDefault; s != nil && (*s < 0 || *s > 1) {
		errs = multierr.Append(errs, fmt.Errorf("churn.sentiment_default: must be in [0, 1], got %v", *s))
	}
	if t := cfg.Loan.Threshold; t <= 0 || t >= 1 {
		errs = multierr.Append(errs, fmt.Errorf("loan.threshold: must be in (0, 1), got %v", t))
	}
	if cfg.Explain.TopN < 0 {
		errs = multierr.Append(errs, fmt.Errorf("explain.top_n: must not be negative, got %d", cfg.Explain.TopN))
	}
	if cfg.Cache.Size != nil && *cfg.Cache.Size < 0 {
		errs = multierr.Append(errs, fmt.Errorf("cache.size: must not be negative, got %d", *cfg.Cache.Size))
	}
	if cfg.Artifacts.Dir == "" {
		errs = multierr.Append(errs, errors.New("artifacts.dir: is required"))
	}

	return errs
}
