package llm

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI is the hosted backend: embeddings and chat completions.
type OpenAI struct {
	client         openai.Client
	embeddingModel string
	chatModel      string
	dimension      int
}

// OpenAIConfig configures the OpenAI client.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string // Optional, for compatible gateways.
	EmbeddingModel string
	ChatModel      string
	Dimension      int
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{
		client:         openai.NewClient(opts...),
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		dimension:      cfg.Dimension,
	}
}

func (o *OpenAI) Dimension() int { return o.dimension }

func (o *OpenAI) Model() string { return o.chatModel }

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(o.embeddingModel),
	}
	if o.dimension > 0 {
		params.Dimensions = openai.Int(int64(o.dimension))
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := slices.Clone(resp.Data)
	slices.SortFunc(data, func(a, b openai.Embedding) int { return int(a.Index - b.Index) })

	out := make([][]float32, len(data))
	for i, d := range data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
