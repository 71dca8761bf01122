package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/config"
	"github.com/caseforge/caseforge/pkg/ingest"
	"github.com/caseforge/caseforge/pkg/ingest/normalize"
	"github.com/caseforge/caseforge/pkg/metrics"
	"github.com/caseforge/caseforge/pkg/store"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the ingest worker",
	Long: `Start the CaseForge ingest worker.

The worker polls for queued ingest jobs, leases one at a time, and drives the
pipeline: raw block capture, normalization, parsing and dedupe-safe event
insertion. A single worker is sufficient; running several is safe because the
job lease is a status transition.

Examples:
  # Start with default config location
  caseforge worker

  # Start with custom config
  caseforge worker --config /etc/caseforge/config.yaml`,
	RunE: runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownObservability, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownObservability()

	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	st, err := store.New(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() { _ = st.Close() }()

	blobs, err := blobstore.New(cfg.Storage.ObjectStorePath, cfg.Storage.UploadPath)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	var ingestMetrics *metrics.IngestMetrics
	if cfg.Metrics.Enabled {
		ingestMetrics = metrics.NewIngestMetrics()
	}

	runner, err := ingest.NewRunner(st, blobs, ingestMetrics, ingest.RunnerConfig{
		PollInterval: cfg.Worker.PollInterval,
		BlockSize:    cfg.Worker.BlockSize,
		StaleGrace:   cfg.Worker.StaleGrace,
		DateOrder:    normalize.DateOrder(cfg.Worker.DateOrder),
		Timezone:     cfg.Worker.Timezone,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize runner: %w", err)
	}

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- runner.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Worker is running. Press Ctrl+C to stop.",
		"poll_interval", cfg.Worker.PollInterval.String(),
		"timezone", cfg.Worker.Timezone)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, finishing current job")
		cancel()

		if err := <-workerDone; err != nil && err != context.Canceled {
			logger.Error("Worker shutdown error", "error", err)
			return err
		}
		logger.Info("Worker stopped gracefully")

	case err := <-workerDone:
		signal.Stop(sigChan)
		if err != nil && err != context.Canceled {
			logger.Error("Worker error", "error", err)
			return err
		}
		logger.Info("Worker stopped")
	}

	return nil
}
