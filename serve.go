package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xiaot623/worldrag/internal/adapter/embedding"
	"github.com/xiaot623/worldrag/internal/adapter/llm"
	"github.com/xiaot623/worldrag/internal/config"
	"github.com/xiaot623/worldrag/internal/dataset"
	"github.com/xiaot623/worldrag/internal/index"
	"github.com/xiaot623/worldrag/internal/ingest"
	"github.com/xiaot623/worldrag/internal/policy"
	"github.com/xiaot623/worldrag/internal/repository"
	"github.com/xiaot623/worldrag/internal/service"
	handler "github.com/xiaot623/worldrag/internal/transport/http"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Provision datasets, build the index and serve the chat API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), loadConfig(flags))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.Info().
		Int("port", cfg.HTTPPort).
		Str("database", cfg.DatabaseURL).
		Str("retriever", cfg.Retriever).
		Str("model", cfg.LLMModel).
		Msg("starting worldrag")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Provision datasets; a partial failure still serves what is on disk.
	if _, err := dataset.Provision(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("dataset provisioning incomplete")
	}

	docs, err := ingest.Load(ingest.Sources{PDF: cfg.GEMPDF, CSV: cfg.WorldDataCSV})
	if err != nil {
		log.Warn().Err(err).Msg("some documents could not be loaded")
	}
	if len(docs) == 0 {
		return errors.New("no documents available to index")
	}

	idx, err := index.Build(ctx, index.Options{
		Backend:      cfg.Retriever,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}, newEmbedder(cfg), docs)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	// Initialize service
	svc := service.New(db, idx, llm.NewGenerator(cfg), cfg, policyEngine)
	go svc.RunSessionSweeper(ctx)

	server := handler.NewServer(svc, cfg.ChatTimeout)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().Int("port", cfg.HTTPPort).Int("chunks", idx.Len()).Msg("chat API started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info().Msg("shutting down worldrag")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server gracefully")
	}

	log.Info().Msg("worldrag stopped")
	return nil
}

func newEmbedder(cfg *config.Config) embedding.Embedder {
	if cfg.IsMock() {
		log.Info().Msg("WORLDRAG_MODE=MOCK detected, using hashing embedder")
		return embedding.NewHashEmbedder(cfg.EmbeddingDims)
	}
	return embedding.NewHFClient(cfg.EmbeddingURL, cfg.EmbeddingModel, cfg.HFToken, cfg.EmbeddingBatch, cfg.LLMTimeout)
}

// exitOnSignal is used by commands that have no server to drain.
func exitOnSignal(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
