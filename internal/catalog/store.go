package catalog

import (
	"context"
	"sort"
	"sync"
)

// Store is the product repository contract the pricing pipeline consumes.
type Store interface {
	Get(ctx context.Context, id string) (Product, error)
	Upsert(ctx context.Context, p Product) error
	ListAll(ctx context.Context) ([]Product, error)
}

// MemoryStore is a mutex-guarded in-memory Store. Values are copied on the
// way in and out, so callers never share a mutable record with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[string]Product)}
}

// Get returns the product stored under id.
func (s *MemoryStore) Get(ctx context.Context, id string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, NotFoundError{ID: id}
	}
	return p, nil
}

// Upsert validates and stores the product, replacing any previous record
// with the same id.
func (s *MemoryStore) Upsert(ctx context.Context, p Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

// ListAll returns every product ordered by id.
func (s *MemoryStore) ListAll(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
