package store

import (
	"context"

	"storefront-catalog-service/internal/domain"
)

// CatalogStorer is the read surface the API layer depends on. The catalog
// is snapshot-oriented: a whole resolved product set is swapped in at once
// and identified by a monotonically increasing revision, which doubles as
// the cache key for derived facets and query results.
type CatalogStorer interface {
	// Snapshot returns the current resolved products and the revision they
	// belong to. The returned slice must not be mutated.
	Snapshot(ctx context.Context) ([]domain.ResolvedProduct, uint64, error)

	// GetProductByID returns one product from the current snapshot.
	GetProductByID(ctx context.Context, id string) (*domain.ResolvedProduct, error)

	// Replace swaps in a new snapshot and returns its revision.
	Replace(ctx context.Context, products []domain.ResolvedProduct) (uint64, error)
}
