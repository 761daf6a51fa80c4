// Package rag answers questions from retrieved document chunks.
package rag

import (
	"context"
	"log/slog"
	"time"
)

// Pipeline retrieves context for a question and composes the answer.
type Pipeline struct {
	retriever *Retriever
	composer  *Composer
	log       *slog.Logger
}

func NewPipeline(retriever *Retriever, composer *Composer, log *slog.Logger) *Pipeline {
	return &Pipeline{retriever: retriever, composer: composer, log: log}
}

// Answer runs retrieval then composition. Errors wrap ErrEmbedding,
// ErrVectorStore or ErrGeneration.
func (p *Pipeline) Answer(ctx context.Context, question string) (string, error) {
	start := time.Now()
	contexts, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	retrieved := time.Since(start)

	answer, err := p.composer.Compose(ctx, contexts, question)
	if err != nil {
		return "", err
	}
	p.log.Debug("answered",
		"chunks", len(contexts),
		"retrieve_ms", retrieved.Milliseconds(),
		"total_ms", time.Since(start).Milliseconds(),
	)
	return answer, nil
}
