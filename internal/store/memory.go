package store

import (
	"context"
	"errors"
	"sync"

	"storefront-catalog-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound = errors.New("store: product not found")
)

// MemoryStore implements CatalogStorer over an in-memory snapshot. The core
// owns no persistence; product data is fetched and resolved externally, so
// the store's only job is to hand out a consistent snapshot plus a revision
// counter, safely across concurrent readers and refreshes.
type MemoryStore struct {
	mu       sync.RWMutex
	products []domain.ResolvedProduct
	byID     map[string]int
	revision uint64
}

// NewMemoryStore creates an empty store at revision 0. Replace seeds it.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

func (s *MemoryStore) Snapshot(ctx context.Context) ([]domain.ResolvedProduct, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products, s.revision, nil
}

func (s *MemoryStore) GetProductByID(ctx context.Context, id string) (*domain.ResolvedProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}

// Replace swaps in a new snapshot. The store copies the slice header only;
// callers hand over ownership of the slice and must not mutate it after.
func (s *MemoryStore) Replace(ctx context.Context, products []domain.ResolvedProduct) (uint64, error) {
	byID := make(map[string]int, len(products))
	for i := range products {
		byID[products[i].ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.byID = byID
	s.revision++
	return s.revision, nil
}
