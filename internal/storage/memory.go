package storage

import (
	"context"
	"sync"
)

// MemCollection keeps the collection in process memory. It honors the
// same contract as the durable media, which makes it the drop-in
// backend for tests and ephemeral runs.
type MemCollection[T Record] struct {
	mu      sync.RWMutex
	records []T
}

// NewMemCollection returns a memory-backed collection holding a copy of
// seed as its first-touch state.
func NewMemCollection[T Record](seed []T) *MemCollection[T] {
	return &MemCollection[T]{records: append([]T(nil), seed...)}
}

func (c *MemCollection[T]) Ping(_ context.Context) error { return nil }

func (c *MemCollection[T]) Load(_ context.Context) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	// Always a non-nil slice: an empty collection must serialize as [].
	return append(make([]T, 0, len(c.records)), c.records...), nil
}

func (c *MemCollection[T]) Save(_ context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append([]T(nil), records...)
	return nil
}
