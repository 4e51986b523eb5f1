package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/altocumulus/weather-etl/internal/adapter/http"
	"github.com/altocumulus/weather-etl/internal/config"
	"github.com/altocumulus/weather-etl/internal/observability"
	"github.com/altocumulus/weather-etl/internal/pipeline"
	"github.com/altocumulus/weather-etl/internal/source/csvfile"
	"github.com/altocumulus/weather-etl/internal/source/jsonfile"
	"github.com/altocumulus/weather-etl/internal/source/openweather"
	"github.com/altocumulus/weather-etl/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("failed to prepare directories", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	st := store.New(db, logger)
	if err := st.RunMigrations(); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	extractors := []pipeline.Extractor{
		csvfile.New(cfg.CSVPath, logger),
		jsonfile.New(cfg.JSONPath, logger),
	}
	if cfg.APIEnabled {
		client := openweather.NewClient(cfg.APIKey, cfg.APIBaseURL, cfg.APITimeout, metrics.APIRequestDuration)
		extractors = append(extractors, openweather.NewExtractor(client, cfg.Cities, logger))
		logger.Info("live weather API enabled", "cities", len(cfg.Cities), "timeout", cfg.APITimeout)
	} else {
		logger.Info("live weather API disabled")
	}

	p := pipeline.New(extractors, st, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		summary, err := p.Run(ctx)
		if err == nil {
			logger.Info("pipeline finished",
				"inserted", summary.Load.Inserted,
				"duplicates", summary.Load.Duplicates,
				"errors", summary.Load.Errors)
		}
		runErr <- err
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutting down on signal")
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pipeline error", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}
