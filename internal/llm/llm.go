// Package llm wraps the embedding and text generation services the chatbot
// talks to. Every provider satisfies Embedder, Generator or both.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Embedder turns texts into fixed-length vectors. Dimension is the length
// every returned vector must have; callers enforce it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Generator produces a completion for a single user prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Model() string
}

// GenerateOptions are the sampling parameters of one completion.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
}

// APIError is a non-2xx answer from a provider reached over plain HTTP.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api status %d: %s", e.Provider, e.StatusCode, truncate(e.Message, 200))
}

// Transient reports whether the status usually clears on its own.
func (e *APIError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsTransient reports whether err wraps an APIError that is Transient.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Transient()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// TimedGenerator records the latency of every Generate call.
type TimedGenerator struct {
	Generator
	Stats *LatencyStats
}

func (t *TimedGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	start := time.Now()
	out, err := t.Generator.Generate(ctx, prompt, opts)
	t.Stats.Record(time.Since(start), err)
	return out, err
}

// TimedEmbedder records the latency of every Embed call.
type TimedEmbedder struct {
	Embedder
	Stats *LatencyStats
}

func (t *TimedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	out, err := t.Embedder.Embed(ctx, texts)
	t.Stats.Record(time.Since(start), err)
	return out, err
}
