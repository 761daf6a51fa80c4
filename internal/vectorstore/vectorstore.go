// Package vectorstore holds chunk vectors and answers nearest-neighbour
// queries. Pinecone is the production store; Memory serves development and
// tests.
package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrIndexNotFound is returned when queries target an index that does
	// not exist yet.
	ErrIndexNotFound = errors.New("vectorstore: index not found")
	// ErrDimension is returned when a vector does not match the index.
	ErrDimension = errors.New("vectorstore: dimension mismatch")
)

// Record is one vector to upsert.
type Record struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is one query result. Higher Score means more similar.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Store is a vector index.
type Store interface {
	// EnsureIndex makes sure the index exists with the given dimension,
	// creating it when missing.
	EnsureIndex(ctx context.Context, dimension int) error
	// Upsert inserts or overwrites records by ID.
	Upsert(ctx context.Context, records []Record) error
	// Query returns up to topK matches ordered by descending score.
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]Match, error)
}
