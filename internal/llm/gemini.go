package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini uses Google's generative AI API for embeddings and generation.
type Gemini struct {
	client         *genai.Client
	embeddingModel string
	chatModel      string
	dimension      int
}

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	Dimension      int

	// ClientOptions are appended after the API key, e.g. a custom HTTP client.
	ClientOptions []option.ClientOption
}

func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.ClientOptions...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{
		client:         client,
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		dimension:      cfg.Dimension,
	}, nil
}

func (g *Gemini) Dimension() int { return g.dimension }

func (g *Gemini) Model() string { return g.chatModel }

func (g *Gemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	em := g.client.EmbeddingModel(g.embeddingModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("gemini embed: missing vector %d", i)
		}
		out[i] = e.Values
	}
	return out, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	// Models are cheap handles; a fresh one per call keeps settings local.
	model := g.client.GenerativeModel(g.chatModel)
	model.SetTemperature(float32(opts.Temperature))
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini generate: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Close releases the underlying gRPC connection.
func (g *Gemini) Close() error {
	return g.client.Close()
}
