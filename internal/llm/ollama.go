package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// Ollama is the local backend: a sentence-embedding model and a chat model
// served by an Ollama daemon.
type Ollama struct {
	client         *ollama.Client
	embeddingModel string
	chatModel      string
	dimension      int
}

// OllamaConfig configures the Ollama client.
type OllamaConfig struct {
	BaseURL        string // Defaults to http://localhost:11434.
	EmbeddingModel string
	ChatModel      string
	Dimension      int
	Timeout        time.Duration
}

func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Ollama{
		client:         ollama.NewClient(u, &http.Client{Timeout: cfg.Timeout}),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		dimension:      cfg.Dimension,
	}, nil
}

func (o *Ollama) Dimension() int { return o.dimension }

func (o *Ollama) Model() string { return o.chatModel }

func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := o.client.Embed(ctx, &ollama.EmbedRequest{
		Model: o.embeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

func (o *Ollama) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	stream := false
	req := &ollama.ChatRequest{
		Model: o.chatModel,
		Messages: []ollama.Message{
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
		},
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}

	var sb strings.Builder
	err := o.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}
