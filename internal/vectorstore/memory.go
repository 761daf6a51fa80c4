package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process store ranking by cosine similarity. Contents are
// lost on exit.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	ids       []string // Insertion order, for stable ties.
	records   map[string]Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func (m *Memory) EnsureIndex(ctx context.Context, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimension != 0 && m.dimension != dimension {
		return fmt.Errorf("%w: memory index has dimension %d, got %d", ErrDimension, m.dimension, dimension)
	}
	m.dimension = dimension
	return nil
}

func (m *Memory) Upsert(ctx context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if m.dimension != 0 && len(r.Values) != m.dimension {
			return fmt.Errorf("%w: record %s has %d values, index expects %d", ErrDimension, r.ID, len(r.Values), m.dimension)
		}
	}
	for _, r := range records {
		if _, ok := m.records[r.ID]; !ok {
			m.ids = append(m.ids, r.ID)
		}
		m.records[r.ID] = Record{
			ID:       r.ID,
			Values:   append([]float32(nil), r.Values...),
			Metadata: r.Metadata,
		}
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.dimension != 0 && len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: query has %d values, index expects %d", ErrDimension, len(vector), m.dimension)
	}
	if topK <= 0 || len(m.ids) == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(m.ids))
	for _, id := range m.ids {
		r := m.records[id]
		match := Match{ID: id, Score: cosine(vector, r.Values)}
		if includeMetadata {
			match.Metadata = r.Metadata
		}
		matches = append(matches, match)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
