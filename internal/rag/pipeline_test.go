package rag

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineAnswer_EndToEnd(t *testing.T) {
	store := &fakeStore{matches: textMatches(
		"Diabetes is a metabolic disorder...",
		"Common symptoms include...",
	)}
	gen := &fakeGenerator{out: "\nDiabetes is a long-term condition.  "}
	p := NewPipeline(
		NewRetriever(&fakeEmbedder{dim: 3}, store, 6),
		newTestComposer(t, gen, DefaultComposerConfig()),
		testLogger(),
	)

	answer, err := p.Answer(context.Background(), "What is diabetes?")
	require.NoError(t, err)
	assert.Equal(t, "Diabetes is a long-term condition.", answer)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Diabetes is a metabolic disorder...\n\nCommon symptoms include...")
	assert.Contains(t, gen.prompts[0], "Question:\nWhat is diabetes?")
	assert.Contains(t, gen.prompts[0], "Do NOT diagnose.")
}

func TestPipelineAnswer_NoMatches(t *testing.T) {
	gen := &fakeGenerator{out: "unused"}
	p := NewPipeline(
		NewRetriever(&fakeEmbedder{dim: 3}, &fakeStore{}, 6),
		newTestComposer(t, gen, DefaultComposerConfig()),
		testLogger(),
	)

	answer, err := p.Answer(context.Background(), "What is xyzzy syndrome?")
	require.NoError(t, err)
	assert.Contains(t, answer, "don't have enough information")
	assert.Zero(t, gen.calls)
}

func TestPipelineAnswer_StoreErrorStopsBeforeModel(t *testing.T) {
	gen := &fakeGenerator{}
	p := NewPipeline(
		NewRetriever(&fakeEmbedder{dim: 3}, &fakeStore{err: errors.New("unreachable")}, 6),
		newTestComposer(t, gen, DefaultComposerConfig()),
		testLogger(),
	)

	_, err := p.Answer(context.Background(), "q")
	assert.True(t, errors.Is(err, ErrVectorStore))
	assert.Zero(t, gen.calls)
}
