// Package storage provides whole-collection persistence for uniquely
// identified records. A Collection knows only two primitives, Load and
// Save: every higher-level operation is a full read, an in-memory
// transform, and a full write-back. The backing medium (flat file,
// memory, Postgres) is injected, never hardcoded.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports that no record matched the given id or key.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable reports that the backing medium could not be read
	// or written. A missing-but-creatable storage location is not this
	// case; first touch seeds the default collection instead.
	ErrUnavailable = errors.New("storage unavailable")
)

// Record is any value that carries its own unique identifier.
type Record interface {
	RecordID() string
}

// Collection is durable storage for one record type. Load returns every
// persisted record in insertion order; Save atomically replaces the
// whole collection. Implementations must never leave the medium in a
// state that is neither the old nor the new collection.
type Collection[T Record] interface {
	Ping(ctx context.Context) error
	Load(ctx context.Context) ([]T, error)
	Save(ctx context.Context, records []T) error
}

// FindByID is a convenience read layered on Load.
func FindByID[T Record](ctx context.Context, c Collection[T], id string) (T, bool, error) {
	return Find(ctx, c, func(r T) bool { return r.RecordID() == id })
}

// Find returns the first record matching pred, in insertion order.
func Find[T Record](ctx context.Context, c Collection[T], pred func(T) bool) (T, bool, error) {
	var zero T

	records, err := c.Load(ctx)
	if err != nil {
		return zero, false, err
	}

	for _, r := range records {
		if pred(r) {
			return r, true, nil
		}
	}
	return zero, false, nil
}
