package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/pkg/api"
	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/config"
	"github.com/caseforge/caseforge/pkg/store"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Start the CaseForge HTTP API server.

The API accepts chunked transcript uploads, queues ingest jobs, and serves
event queries, raw-line evidence, report packs and player search. Ingest
itself is driven by a separate worker process ("caseforge worker").

Examples:
  # Start with default config location
  caseforge api

  # Start with custom config
  caseforge api --config /etc/caseforge/config.yaml

  # Override config via environment
  CASEFORGE_LOGGING_LEVEL=DEBUG caseforge api`,
	RunE: runAPI,
}

func runAPI(cmd *cobra.Command, args []string) error {
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

	server := api.NewServer(cfg.API, st, blobs)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("API server is running. Press Ctrl+C to stop.", "port", cfg.API.Port)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("API server shutdown error", "error", err)
			return err
		}
		logger.Info("API server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("API server error", "error", err)
			return err
		}
		logger.Info("API server stopped")
	}

	return nil
}
