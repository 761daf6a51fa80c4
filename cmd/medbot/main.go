// Command medbot serves the medical chatbot and builds its vector index.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/medbot/internal/config"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "medbot",
	Short: "Retrieval-augmented medical question answering",
	Long: `medbot answers health questions from a fixed document corpus.
Run "medbot index" to embed the documents into the vector store, then
"medbot serve" to start the chat server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates configuration, returning it with a
// logger at the configured level.
func loadConfig() (config.Config, *slog.Logger, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, nil, err
	}
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		return cfg, log, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
