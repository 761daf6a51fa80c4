package rag

import (
	"context"
	"strings"

	"github.com/dgallion1/medbot/internal/llm"
	"github.com/dgallion1/medbot/internal/vectorstore"
)

type fakeEmbedder struct {
	dim    int
	err    error
	inputs [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.inputs = append(f.inputs, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		for j := range v {
			v[j] = float32(len(texts[i])%7+j) / 10
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

type fakeStore struct {
	matches []vectorstore.Match
	err     error

	vector          []float32
	topK            int
	includeMetadata bool
}

func (f *fakeStore) EnsureIndex(ctx context.Context, dimension int) error { return nil }

func (f *fakeStore) Upsert(ctx context.Context, records []vectorstore.Record) error { return nil }

func (f *fakeStore) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]vectorstore.Match, error) {
	f.vector, f.topK, f.includeMetadata = vector, topK, includeMetadata
	return f.matches, f.err
}

type fakeGenerator struct {
	out     string
	err     error
	calls   int
	prompts []string
	opts    []llm.GenerateOptions
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	return f.out, f.err
}

func (f *fakeGenerator) Model() string { return "fake" }

func textMatches(texts ...string) []vectorstore.Match {
	out := make([]vectorstore.Match, len(texts))
	for i, t := range texts {
		out[i] = vectorstore.Match{
			ID:       "doc-" + strings.Repeat("1", i+1),
			Score:    1 - float64(i)/10,
			Metadata: map[string]any{"text": t},
		}
	}
	return out
}
