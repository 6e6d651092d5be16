package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront-catalog-service/internal/domain"
)

// Result is the outcome of one Filter call. Total counts matches after
// filtering but before pagination, so callers can tell whether more pages
// exist.
type Result struct {
	Items []domain.ResolvedProduct `json:"items"`
	Total int                      `json:"total"`
}

// Filter applies the spec to the given products and returns the matching,
// ordered, paginated subset. It is pure: inputs are never mutated, no I/O
// happens, and identical inputs produce identical output. An empty product
// list is not an error; an invalid spec is.
func Filter(products []domain.ResolvedProduct, spec FilterSpec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}

	matched := make([]domain.ResolvedProduct, 0, len(products))
	for i := range products {
		if matches(&products[i], &spec) {
			matched = append(matched, products[i])
		}
	}

	sortProducts(matched, spec.SortKey, spec.SortDirection)

	total := len(matched)
	offset := spec.Offset
	if offset > total {
		offset = total
	}
	end := total
	if spec.Limit != nil && offset+*spec.Limit < end {
		end = offset + *spec.Limit
	}

	return Result{Items: matched[offset:end], Total: total}, nil
}

// matches AND-combines every predicate; cheap flag checks run first, but
// ordering has no observable effect since the predicates are independent.
func matches(p *domain.ResolvedProduct, spec *FilterSpec) bool {
	if spec.InStockOnly && !p.HasStock {
		return false
	}
	if spec.AllVariantsInStockOnly && !p.AllInStock {
		return false
	}
	if spec.OnSaleOnly && !p.OnSale {
		return false
	}
	if len(spec.CategoryIDs) > 0 && !containsString(spec.CategoryIDs, p.CategoryID) {
		return false
	}
	if len(spec.ManufacturerIDs) > 0 && !containsString(spec.ManufacturerIDs, p.ManufacturerID) {
		return false
	}
	if !matchesPriceRange(p, spec) {
		return false
	}
	if !matchesSearch(p, spec.SearchText) {
		return false
	}
	if !matchesAttributes(p, spec.AttributeFilters) {
		return false
	}
	return true
}

// matchesPriceRange tests the effective price against [PriceMin, PriceMax].
// A multi-variant product matches when at least one purchasable option fits
// the bounds; it should not drop out of a price-filtered list just because
// its most expensive variant does not fit.
func matchesPriceRange(p *domain.ResolvedProduct, spec *FilterSpec) bool {
	if spec.PriceMin == nil && spec.PriceMax == nil {
		return true
	}
	if p.IsSimple || len(p.Variants) == 0 {
		return priceInBounds(p.DisplayPrice, spec.PriceMin, spec.PriceMax)
	}
	for i := range p.Variants {
		if priceInBounds(p.Variants[i].FinalPrice, spec.PriceMin, spec.PriceMax) {
			return true
		}
	}
	return false
}

func priceInBounds(price decimal.Decimal, min, max *decimal.Decimal) bool {
	if min != nil && price.LessThan(*min) {
		return false
	}
	if max != nil && price.GreaterThan(*max) {
		return false
	}
	return true
}

// matchesSearch is a case-insensitive substring test against name,
// description and every variant's reference.
func matchesSearch(p *domain.ResolvedProduct, text string) bool {
	if text == "" {
		return true
	}
	needle := strings.ToLower(text)
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	for i := range p.Variants {
		if strings.Contains(strings.ToLower(p.Variants[i].Reference), needle) {
			return true
		}
	}
	return false
}

// matchesAttributes requires one single variant to satisfy every requested
// group constraint at once. It is not enough for different variants to each
// satisfy one group, and a simple product never matches a non-empty
// attribute filter.
func matchesAttributes(p *domain.ResolvedProduct, filters map[string][]string) bool {
	if len(filters) == 0 {
		return true
	}
	for i := range p.Variants {
		if variantSatisfiesAll(&p.Variants[i], filters) {
			return true
		}
	}
	return false
}

func variantSatisfiesAll(v *domain.Variant, filters map[string][]string) bool {
	for group, values := range filters {
		if !variantHasValue(v, group, values) {
			return false
		}
	}
	return true
}

// variantHasValue matches the group by name or id, and any of the accepted
// values by name or id.
func variantHasValue(v *domain.Variant, group string, accepted []string) bool {
	for _, a := range v.Attributes {
		if a.GroupID != group && a.GroupName != group {
			continue
		}
		for _, want := range accepted {
			if a.ValueID == want || a.ValueName == want {
				return true
			}
		}
	}
	return false
}

func containsString(set []string, s string) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}
