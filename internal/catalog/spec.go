package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SortKey selects the attribute products are ordered by.
type SortKey string

const (
	SortKeyPrice SortKey = "price" // DisplayPrice
	SortKeyName  SortKey = "name"  // Case-insensitive lexicographic
	SortKeyStock SortKey = "stock" // TotalStock
	// SortKeyID orders by id; upstream ids are auto-increment, so a higher
	// id means a more recently created product.
	SortKeyID SortKey = "id"
)

// SortDirection is the order applied to the sort key.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FilterSpec is a declarative description of one catalog query: which
// products match, how they are ordered and which page is returned. All
// predicates are AND-combined. The zero value matches everything, sorted by
// ascending id, unpaginated.
type FilterSpec struct {
	// CategoryIDs matches a product's primary category by set membership.
	CategoryIDs     []string
	ManufacturerIDs []string

	// PriceMin/PriceMax bound the effective price. A product with variants
	// matches when any single variant's final price falls inside the
	// bounds; a simple product is tested on its display price.
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal

	InStockOnly            bool
	AllVariantsInStockOnly bool
	OnSaleOnly             bool

	// SearchText is a case-insensitive substring test against name,
	// description and variant references. Empty matches everything.
	SearchText string

	// AttributeFilters maps a group (by name or id) to the set of
	// acceptable values (by name or id). Groups combine with AND, values
	// within a group with OR, and one single variant must satisfy every
	// group constraint simultaneously.
	AttributeFilters map[string][]string

	SortKey       SortKey       // Empty defaults to SortKeyID
	SortDirection SortDirection // Empty defaults to SortAsc

	// Offset/Limit window the post-filter, post-sort result. A nil Limit
	// means no limit. Both are clamped to the result size.
	Offset int
	Limit  *int
}

// SpecError reports which FilterSpec field is invalid and why. An invalid
// spec fails the whole call; the engine never silently returns an empty or
// unfiltered result instead.
type SpecError struct {
	Field  string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("catalog: invalid filter spec: field %q: %s", e.Field, e.Reason)
}

// Validate checks the spec's internal consistency. It is called by Filter;
// callers building specs from untrusted input may call it earlier to fail
// fast.
func (s *FilterSpec) Validate() error {
	if s.PriceMin != nil && s.PriceMin.IsNegative() {
		return &SpecError{Field: "priceMin", Reason: "must not be negative"}
	}
	if s.PriceMax != nil && s.PriceMax.IsNegative() {
		return &SpecError{Field: "priceMax", Reason: "must not be negative"}
	}
	if s.PriceMin != nil && s.PriceMax != nil && s.PriceMin.GreaterThan(*s.PriceMax) {
		return &SpecError{Field: "priceMin", Reason: "must not exceed priceMax"}
	}
	switch s.SortKey {
	case "", SortKeyPrice, SortKeyName, SortKeyStock, SortKeyID:
	default:
		return &SpecError{Field: "sortKey", Reason: fmt.Sprintf("unknown sort key %q", s.SortKey)}
	}
	switch s.SortDirection {
	case "", SortAsc, SortDesc:
	default:
		return &SpecError{Field: "sortDirection", Reason: fmt.Sprintf("unknown sort direction %q", s.SortDirection)}
	}
	if s.Offset < 0 {
		return &SpecError{Field: "offset", Reason: "must not be negative"}
	}
	if s.Limit != nil && *s.Limit < 0 {
		return &SpecError{Field: "limit", Reason: "must not be negative"}
	}
	return nil
}
