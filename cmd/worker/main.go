package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trustlayer/trustgraph/internal/bootstrap"
	"github.com/trustlayer/trustgraph/internal/config"
	"github.com/trustlayer/trustgraph/internal/core/ports"
	"github.com/trustlayer/trustgraph/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("trustgraph-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		app.Close(closeCtx)
	}()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	opts := ports.BatchOptions{
		OutputPath: cfg.OutputPath,
		MaxItems:   cfg.MaxItems,
	}

	if cfg.RedditInputPath == "" && cfg.YouTubeInputPath == "" {
		logger.Warn("no input paths configured, nothing to process")
		return
	}

	total := 0
	if cfg.RedditInputPath != "" {
		atoms, err := app.Pipeline.ProcessRedditData(ctx, cfg.RedditInputPath, opts)
		if err != nil {
			log.Fatalf("process reddit data: %v", err)
		}
		total += len(atoms)
	}
	if cfg.YouTubeInputPath != "" {
		atoms, err := app.Pipeline.ProcessYouTubeData(ctx, cfg.YouTubeInputPath, opts)
		if err != nil {
			log.Fatalf("process youtube data: %v", err)
		}
		total += len(atoms)
	}

	logger.Info("worker run complete", "atoms", total)
}
