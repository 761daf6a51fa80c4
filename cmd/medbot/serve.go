package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/medbot/internal/api"
	"github.com/spf13/cobra"
)

var indexOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat server",
	Long: `Starts the HTTP server with the chat page on / and the answer endpoint
on POST /get. With --index-on-start the data directory is indexed first,
which is how the in-memory vector store gets its contents.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&indexOnStart, "index-on-start", false, "index the data directory before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, true)
	if err != nil {
		log.Error("build clients", "error", err)
		return err
	}
	defer d.Close()

	if indexOnStart {
		if _, err := runIndex(ctx, newIndexer(cfg, d, log, cfg.DataDir), log); err != nil {
			return err
		}
	}

	pipeline, err := newPipeline(cfg, d, log)
	if err != nil {
		log.Error("prompt template", "error", err)
		return err
	}

	srv := api.NewServer(pipeline, newStats(cfg, d), log)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting medbot",
		"port", cfg.Port,
		"embedding_provider", cfg.EmbeddingProvider,
		"llm_provider", cfg.LLMProvider,
		"vector_store", cfg.VectorStore,
		"prompt_template", cfg.PromptTemplate,
	)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		return err
	}
	return nil
}
