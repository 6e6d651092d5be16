package catalog

import (
	"sync"

	"storefront-catalog-service/internal/domain"
)

// FacetSet bundles the derived facets for one catalog snapshot.
type FacetSet struct {
	Attributes map[string][]string `json:"attributes"`
	PriceRange domain.PriceRange   `json:"price_range"`
	// HasPriceRange is false for an empty catalog, where min/max are
	// meaningless.
	HasPriceRange bool       `json:"has_price_range"`
	Stock         StockStats `json:"stock"`
}

// ComputeFacets derives the full facet set for a product collection.
func ComputeFacets(products []domain.ResolvedProduct) FacetSet {
	pr, ok := PriceRangeOf(products)
	return FacetSet{
		Attributes:    AvailableAttributes(products),
		PriceRange:    pr,
		HasPriceRange: ok,
		Stock:         StockStatistics(products),
	}
}

// FacetCache memoizes one FacetSet keyed by a catalog revision counter. It
// is caller-owned: each consumer constructs its own instance, so tests and
// concurrent users never share state through a process-wide singleton. A
// revision bump invalidates the previous entry.
type FacetCache struct {
	mu       sync.RWMutex
	revision uint64
	facets   FacetSet
	valid    bool
}

// Get returns the cached facet set for the given revision, if present.
func (c *FacetCache) Get(revision uint64) (FacetSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid || c.revision != revision {
		return FacetSet{}, false
	}
	return c.facets, true
}

// Set stores the facet set for the given revision, replacing any previous
// entry.
func (c *FacetCache) Set(revision uint64, facets FacetSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revision = revision
	c.facets = facets
	c.valid = true
}
