package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/gyaneshwarpardhi/bankpredict/internal/api"
	"github.com/gyaneshwarpardhi/bankpredict/internal/artifact"
	"github.com/gyaneshwarpardhi/bankpredict/internal/audit"
	"github.com/gyaneshwarpardhi/bankpredict/internal/config"
	"github.com/gyaneshwarpardhi/bankpredict/internal/logging"
	"github.com/gyaneshwarpardhi/bankpredict/internal/model"
	"github.com/gyaneshwarpardhi/bankpredict/internal/predict"
)

func main() {
	cfgPath := flag.String("config", "configs/server.yaml", "Path to server YAML config")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	flag.Parse()

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	cfg := loader.Config()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// ── Artifacts ─────────────────────────────────────────────────────────────
	store := artifact.NewStore(cfg.Artifacts.Dir, model.DefaultRegistry(), logger)
	if _, err := store.Reload(); err != nil {
		logger.Fatal("failed to load model artifacts", zap.String("dir", cfg.Artifacts.Dir), zap.Error(err))
	}
	if cfg.Artifacts.Watch {
		stopArtifacts, err := store.Watch()
		if err != nil {
			logger.Warn("artifact watcher unavailable (hot-reload disabled)", zap.Error(err))
		} else {
			defer stopArtifacts()
		}
	}

	// ── Audit log ─────────────────────────────────────────────────────────────
	var (
		recorder predict.Recorder
		predLog  api.PredictionLog
	)
	if cfg.Audit.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Audit.Path), 0o755); err != nil {
			logger.Fatal("failed to create audit directory", zap.Error(err))
		}
		auditStore, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.Fatal("failed to open audit log", zap.String("path", cfg.Audit.Path), zap.Error(err))
		}
		defer auditStore.Close()
		recorder, predLog = auditStore, auditStore
	}

	// ── Prediction service ────────────────────────────────────────────────────
	svc, err := predict.New(predict.Deps{
		Artifacts: store,
		Recorder:  recorder,
		Logger:    logger,
		CacheSize: *cfg.Cache.Size,
		Options:   predict.OptionsFromConfig(cfg),
	})
	if err != nil {
		logger.Fatal("failed to build prediction service", zap.Error(err))
	}
	store.OnChange(func(set *artifact.Set) {
		svc.Purge()
		logger.Info("artifact set swapped, prediction cache purged",
			zap.String("dir", store.Dir()),
			zap.String("version", set.Version),
		)
	})

	// ── Config hot-reload ─────────────────────────────────────────────────────
	// Only thresholds, placeholders and top_n apply live; other sections need a restart.
	loader.OnChange(func(newCfg *config.Config) {
		svc.SetOptions(predict.OptionsFromConfig(newCfg))
		logger.Info("config hot-reloaded",
			zap.Float64("churn_threshold", newCfg.Churn.Threshold),
			zap.Float64("loan_threshold", newCfg.Loan.Threshold),
			zap.Int("top_n", newCfg.Explain.TopN),
		)
	})
	loader.OnError(func(err error) {
		logger.Warn("hot-reload skipped: config invalid", zap.Error(err))
	})
	stopConfig, err := loader.Watch()
	if err != nil {
		logger.Warn("config watcher unavailable (hot-reload disabled)", zap.Error(err))
	} else {
		defer stopConfig()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler, err := api.New(api.Deps{Predictor: svc, Artifacts: store, Log: predLog, Logger: logger})
	if err != nil {
		logger.Fatal("failed to build HTTP handler", zap.Error(err))
	}
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     zap.NewStdLog(logger),
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr), zap.String("artifact_version", store.Current().Version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	logger.Info("goodbye")
}
