package testutil

import (
	"context"
	"sync"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// InMemorySequenceStore implements sequence.Repository. A single mutex
// serializes increments, giving the same gapless, duplicate-free guarantee
// the database upsert provides.
type InMemorySequenceStore struct {
	mu       sync.Mutex
	counters map[types.DocumentCategory]int64
}

// NewInMemorySequenceStore creates a new in-memory sequence repository
func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{
		counters: make(map[types.DocumentCategory]int64),
	}
}

func (m *InMemorySequenceStore) Next(ctx context.Context, category types.DocumentCategory) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[category]++
	return m.counters[category], nil
}

func (m *InMemorySequenceStore) Current(ctx context.Context, category types.DocumentCategory) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counters[category], nil
}

func (m *InMemorySequenceStore) Reset(ctx context.Context, category types.DocumentCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[category] = 0
	return nil
}

// Clear removes all counters
func (m *InMemorySequenceStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[types.DocumentCategory]int64)
}
