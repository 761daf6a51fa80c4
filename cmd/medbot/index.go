package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dgallion1/medbot/internal/config"
	"github.com/spf13/cobra"
)

var indexDir string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the document directory into the vector store",
	Long: `Loads every matching file in the data directory, splits it into
overlapping chunks, embeds them and upserts the vectors. Chunk ids are
deterministic, so running it again overwrites the previous vectors.`,
	RunE: runIndexCmd,
}

func init() {
	indexCmd.Flags().StringVar(&indexDir, "dir", "", "document directory (default DATA_DIR)")
	rootCmd.AddCommand(indexCmd)
}

func runIndexCmd(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.VectorStore == config.StoreMemory {
		log.Warn("indexing into the memory store; vectors are discarded on exit, use serve --index-on-start instead")
	}

	dir := cfg.DataDir
	if indexDir != "" {
		dir = indexDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, false)
	if err != nil {
		log.Error("build clients", "error", err)
		return err
	}
	defer d.Close()

	res, err := runIndex(ctx, newIndexer(cfg, d, log, dir), log)
	if err != nil {
		return err
	}
	cmd.Printf("Indexed %d pages into %d chunks (%d vectors upserted).\n", res.Pages, res.Chunks, res.Upserted)
	return nil
}
