// Package indexer builds the vector index from a directory of documents:
// load, minimize, chunk, embed and upsert, one phase after another.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/medbot/internal/chunker"
	"github.com/dgallion1/medbot/internal/document"
	"github.com/dgallion1/medbot/internal/llm"
	"github.com/dgallion1/medbot/internal/loader"
	"github.com/dgallion1/medbot/internal/vectorstore"
)

// DefaultBatchSize is the number of chunks embedded and upserted per call.
const DefaultBatchSize = 100

// ErrDimensionMismatch is returned when the embedder returns a vector whose
// length differs from its declared dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Config controls an indexing run.
type Config struct {
	Dir        string
	Extensions []string // Defaults to .pdf.
	Chunk      chunker.Config
	BatchSize  int
	Loader     loader.Options
}

// Result summarizes an indexing run.
type Result struct {
	Pages     int `json:"pages"`
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Upserted  int `json:"upserted"`

	EstimatedTokens int `json:"estimated_tokens"`
}

// Indexer runs the indexing phases against one embedder and store.
type Indexer struct {
	embedder llm.Embedder
	store    vectorstore.Store
	log      *slog.Logger
	cfg      Config
}

func New(embedder llm.Embedder, store vectorstore.Store, log *slog.Logger, cfg Config) *Indexer {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".pdf"}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		log:      log,
		cfg:      cfg,
	}
}

// Run indexes every matching file in the configured directory. There is no
// resume: chunk IDs are deterministic, so a rerun overwrites.
func (ix *Indexer) Run(ctx context.Context) (Result, error) {
	// Fail on bad chunk sizes before touching any file.
	if err := ix.cfg.Chunk.Validate(); err != nil {
		return Result{}, err
	}

	log := ix.log.With("dir", ix.cfg.Dir)
	start := time.Now()

	pages, err := loader.LoadDir(ix.cfg.Dir, ix.cfg.Extensions, ix.cfg.Loader)
	if err != nil {
		return Result{}, fmt.Errorf("load documents: %w", err)
	}
	log.Info("loaded documents", "pages", len(pages), "extensions", ix.cfg.Extensions)

	res, err := ix.IndexPages(ctx, pages)
	if err != nil {
		return res, err
	}
	log.Info("indexing complete",
		"pages", res.Pages,
		"documents", res.Documents,
		"chunks", res.Chunks,
		"upserted", res.Upserted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// IndexPages runs every phase after loading.
func (ix *Indexer) IndexPages(ctx context.Context, pages []document.Page) (Result, error) {
	res := Result{Pages: len(pages)}

	docs := document.Minimize(pages)
	res.Documents = len(docs)

	chunks, err := chunker.ChunkDocuments(docs, ix.cfg.Chunk)
	if err != nil {
		return res, err
	}
	res.Chunks = len(chunks)
	res.EstimatedTokens = chunker.EstimateChunkTokens(chunks)
	ix.log.Info("chunked documents",
		"documents", len(docs),
		"chunks", len(chunks),
		"estimated_tokens", res.EstimatedTokens,
	)

	if len(chunks) == 0 {
		ix.log.Warn("no chunks produced, nothing to index")
		return res, nil
	}

	dim := ix.embedder.Dimension()
	if err := ix.store.EnsureIndex(ctx, dim); err != nil {
		return res, fmt.Errorf("ensure index: %w", err)
	}

	for lo := 0; lo < len(chunks); lo += ix.cfg.BatchSize {
		hi := min(lo+ix.cfg.BatchSize, len(chunks))
		n, err := ix.indexBatch(ctx, chunks[lo:hi], dim)
		res.Upserted += n
		if err != nil {
			return res, fmt.Errorf("batch %d-%d: %w", lo, hi-1, err)
		}
		ix.log.Debug("upserted batch", "from", lo, "to", hi-1, "total", res.Upserted)
	}
	return res, nil
}

func (ix *Indexer) indexBatch(ctx context.Context, batch []document.Chunk, dim int) (int, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vecs, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != len(batch) {
		return 0, fmt.Errorf("embed: got %d vectors for %d chunks", len(vecs), len(batch))
	}

	records := make([]vectorstore.Record, len(batch))
	for i, c := range batch {
		if len(vecs[i]) != dim {
			return 0, fmt.Errorf("%w: chunk %s has %d values, expected %d", ErrDimensionMismatch, c.ID, len(vecs[i]), dim)
		}
		records[i] = vectorstore.Record{
			ID:       c.ID,
			Values:   vecs[i],
			Metadata: chunkMetadata(c),
		}
	}

	if err := ix.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return len(records), nil
}

// chunkMetadata stores the chunk text for retrieval and the source when
// known.
func chunkMetadata(c document.Chunk) map[string]any {
	md := map[string]any{"text": c.Text}
	if c.Source != "" {
		md["source"] = c.Source
	}
	return md
}
