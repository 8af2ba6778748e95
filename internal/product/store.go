package product

import (
	"context"
	"sync"

	"ProductHub/internal/storage"
)

// Store performs product CRUD as read-modify-write cycles over one
// collection. The mutex serializes same-process cycles; the medium has
// no cross-process locking and the store does not claim any.
type Store struct {
	mu  sync.Mutex
	col storage.Collection[Product]
}

func NewStore(col storage.Collection[Product]) *Store {
	return &Store{col: col}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.col.Ping(ctx)
}

// List returns every product in insertion order.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	return s.col.Load(ctx)
}

func (s *Store) GetByID(ctx context.Context, id string) (Product, bool, error) {
	return storage.FindByID(ctx, s.col, id)
}

// Create assigns a fresh id and timestamps, appends and persists.
func (s *Store) Create(ctx context.Context, in Input) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.col.Load(ctx)
	if err != nil {
		return Product{}, err
	}

	now := storage.Now()
	p := Product{
		ID:        storage.NewID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(&p)

	if err := s.col.Save(ctx, append(products, p)); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update merges the given fields over the existing record, preserving
// id and createdAt and refreshing updatedAt.
func (s *Store) Update(ctx context.Context, id string, in Input) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.col.Load(ctx)
	if err != nil {
		return Product{}, err
	}

	for i := range products {
		if products[i].ID != id {
			continue
		}

		in.apply(&products[i])
		products[i].UpdatedAt = storage.Now()

		if err := s.col.Save(ctx, products); err != nil {
			return Product{}, err
		}
		return products[i], nil
	}
	return Product{}, storage.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.col.Load(ctx)
	if err != nil {
		return err
	}

	kept := products[:0:0]
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(products) {
		return storage.ErrNotFound
	}

	return s.col.Save(ctx, kept)
}
