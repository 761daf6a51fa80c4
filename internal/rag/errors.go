package rag

import "errors"

// Failure kinds of the answer path. Callers tell them apart with errors.Is.
var (
	ErrEmbedding   = errors.New("embedding failed")
	ErrVectorStore = errors.New("vector store query failed")
	ErrGeneration  = errors.New("generation failed")
)

// Kind names the failure kind of err for logs.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrEmbedding):
		return "embedding"
	case errors.Is(err, ErrVectorStore):
		return "vector_store"
	case errors.Is(err, ErrGeneration):
		return "generation"
	default:
		return "unknown"
	}
}
