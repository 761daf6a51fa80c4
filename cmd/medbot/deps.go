package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/medbot/internal/api"
	"github.com/dgallion1/medbot/internal/config"
	"github.com/dgallion1/medbot/internal/indexer"
	"github.com/dgallion1/medbot/internal/llm"
	"github.com/dgallion1/medbot/internal/loader"
	"github.com/dgallion1/medbot/internal/rag"
	"github.com/dgallion1/medbot/internal/vectorstore"
)

// deps holds the clients built from configuration. They live for the
// whole process and are shared by the server and the indexer.
type deps struct {
	embedder  *llm.TimedEmbedder
	generator *llm.TimedGenerator
	store     vectorstore.Store

	closers []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildDeps creates the embedder and store, plus the generator when
// withGenerator is set.
func buildDeps(ctx context.Context, cfg config.Config, withGenerator bool) (*deps, error) {
	d := &deps{}

	emb, err := newEmbedder(ctx, cfg, d)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.embedder = &llm.TimedEmbedder{Embedder: emb, Stats: llm.NewLatencyStats(cfg.StatsWindow)}

	if withGenerator {
		gen, err := newGenerator(ctx, cfg, d)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.generator = &llm.TimedGenerator{Generator: gen, Stats: llm.NewLatencyStats(cfg.StatsWindow)}
	}

	store, err := newStore(cfg, d)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.store = store
	return d, nil
}

func newEmbedder(ctx context.Context, cfg config.Config, d *deps) (llm.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		return newOpenAI(cfg), nil
	case config.ProviderOllama:
		return newOllama(cfg)
	case config.ProviderGemini:
		g, err := newGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { g.Close() })
		return g, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider)
	}
}

func newGenerator(ctx context.Context, cfg config.Config, d *deps) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return newOpenAI(cfg), nil
	case config.ProviderOllama:
		return newOllama(cfg)
	case config.ProviderGemini:
		g, err := newGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { g.Close() })
		return g, nil
	case config.ProviderAnthropic:
		a := llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, "")
		d.closers = append(d.closers, a.Close)
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

func newOpenAI(cfg config.Config) *llm.OpenAI {
	return llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: cfg.OpenAIEmbeddingModel,
		ChatModel:      cfg.OpenAIChatModel,
		Dimension:      cfg.EmbeddingDimension,
	})
}

func newOllama(cfg config.Config) (*llm.Ollama, error) {
	return llm.NewOllama(llm.OllamaConfig{
		BaseURL:        cfg.OllamaURL,
		EmbeddingModel: cfg.OllamaEmbeddingModel,
		ChatModel:      cfg.OllamaChatModel,
		Dimension:      cfg.EmbeddingDimension,
	})
}

func newGemini(ctx context.Context, cfg config.Config) (*llm.Gemini, error) {
	return llm.NewGemini(ctx, llm.GeminiConfig{
		APIKey:         cfg.GeminiAPIKey,
		EmbeddingModel: cfg.GeminiEmbeddingModel,
		ChatModel:      cfg.GeminiChatModel,
		Dimension:      cfg.EmbeddingDimension,
	})
}

func newStore(cfg config.Config, d *deps) (vectorstore.Store, error) {
	if cfg.VectorStore == config.StoreMemory {
		return vectorstore.NewMemory(), nil
	}
	pc, err := vectorstore.NewPinecone(vectorstore.PineconeConfig{
		APIKey:    cfg.PineconeAPIKey,
		Index:     cfg.PineconeIndex,
		Host:      cfg.PineconeHost,
		Namespace: cfg.PineconeNamespace,
		Cloud:     cfg.PineconeCloud,
		Region:    cfg.PineconeRegion,
	})
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, pc.Close)
	return pc, nil
}

// newPipeline wires retriever and composer with the configured template.
func newPipeline(cfg config.Config, d *deps, log *slog.Logger) (*rag.Pipeline, error) {
	templates, err := rag.DefaultTemplates()
	if cfg.PromptFile != "" {
		templates, err = rag.LoadTemplateFile(cfg.PromptFile)
	}
	if err != nil {
		return nil, err
	}
	tmpl, err := templates.Get(cfg.PromptTemplate)
	if err != nil {
		return nil, err
	}

	retriever := rag.NewRetriever(d.embedder, d.store, cfg.TopK)
	composer := rag.NewComposer(d.generator, tmpl, rag.ComposerConfig{
		Temperature:     cfg.Temperature,
		MaxTokens:       cfg.MaxTokens,
		MaxContextChars: cfg.MaxContextChars,
	})
	return rag.NewPipeline(retriever, composer, log.With("component", "rag")), nil
}

func newIndexer(cfg config.Config, d *deps, log *slog.Logger, dir string) *indexer.Indexer {
	return indexer.New(d.embedder, d.store, log.With("component", "indexer"), indexer.Config{
		Dir:        dir,
		Extensions: cfg.IndexExtensions,
		Chunk:      cfg.Chunk(),
		BatchSize:  cfg.UpsertBatchSize,
		Loader:     loader.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	})
}

func newStats(cfg config.Config, d *deps) *api.Stats {
	stats := &api.Stats{
		EmbeddingProvider: cfg.EmbeddingProvider,
		LLMProvider:       cfg.LLMProvider,
		Embed:             d.embedder.Stats,
	}
	if d.generator != nil {
		stats.Model = d.generator.Model()
		stats.Generate = d.generator.Stats
	}
	return stats
}

// runIndex runs one indexing pass and logs its duration.
func runIndex(ctx context.Context, ix *indexer.Indexer, log *slog.Logger) (indexer.Result, error) {
	start := time.Now()
	res, err := ix.Run(ctx)
	if err != nil {
		log.Error("indexing failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return res, err
	}
	return res, nil
}
