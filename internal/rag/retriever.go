package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/medbot/internal/llm"
	"github.com/dgallion1/medbot/internal/vectorstore"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 6

// Retriever finds the chunks most similar to a question.
type Retriever struct {
	embedder llm.Embedder
	store    vectorstore.Store
	topK     int
}

// NewRetriever builds a retriever. embedder must be the one the index was
// built with.
func NewRetriever(embedder llm.Embedder, store vectorstore.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve returns the texts of the topK nearest chunks, most similar
// first. No matches is not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]string, error) {
	vecs, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("%w: no vector for question", ErrEmbedding)
	}
	if dim := r.embedder.Dimension(); dim > 0 && len(vecs[0]) != dim {
		return nil, fmt.Errorf("%w: got %d values, expected %d", ErrEmbedding, len(vecs[0]), dim)
	}

	matches, err := r.store.Query(ctx, vecs[0], r.topK, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVectorStore, err)
	}

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		if text := matchText(m.Metadata); text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

// matchText reads the chunk text from match metadata. Older indexes store
// it under page_content.
func matchText(md map[string]any) string {
	for _, key := range []string{"text", "page_content"} {
		if s, ok := md[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
