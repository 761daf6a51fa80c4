package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/medbot/internal/document"
)

// ErrInvalidConfig is returned when the window would never advance.
var ErrInvalidConfig = errors.New("chunker: chunk size must be greater than overlap and overlap must not be negative")

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Window length in characters.
	ChunkOverlap int // Characters shared by consecutive windows.
}

// DefaultConfig returns the sizes the corpus was originally indexed with.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    500,
		ChunkOverlap: 20,
	}
}

// Validate reports whether the config can make progress.
func (c Config) Validate() error {
	if c.ChunkOverlap < 0 || c.ChunkSize <= c.ChunkOverlap {
		return fmt.Errorf("%w (chunk_size=%d, overlap=%d)", ErrInvalidConfig, c.ChunkSize, c.ChunkOverlap)
	}
	return nil
}

// Split cuts text into windows of chunkSize characters, each starting
// chunkSize-overlap characters after the previous one. The last window may
// be shorter. Lengths are counted in runes.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if err := (Config{ChunkSize: chunkSize, ChunkOverlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := chunkSize - overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := min(start+chunkSize, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// ChunkDocuments splits every document and numbers the resulting chunks
// sequentially across the whole set. Whitespace-only pieces are dropped.
func ChunkDocuments(docs []document.Document, cfg Config) ([]document.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var chunks []document.Chunk
	index := 0
	for _, doc := range docs {
		parts, err := Split(doc.Text, cfg.ChunkSize, cfg.ChunkOverlap)
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, document.Chunk{
				ID:     ChunkID(index),
				Text:   part,
				Source: doc.Source,
				Index:  index,
			})
			index++
		}
	}
	return chunks, nil
}

// ChunkID returns the vector id for the chunk at the given ordinal.
func ChunkID(index int) string {
	return fmt.Sprintf("doc-%d", index)
}
