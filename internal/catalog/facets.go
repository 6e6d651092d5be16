package catalog

import (
	"sort"

	"storefront-catalog-service/internal/domain"
)

// Facets are read-only summaries derived from a product collection, used to
// render filter controls: which attribute values exist, what the price span
// is, how much of the catalog is purchasable right now.

// StockStats aggregates stock availability over a product collection.
type StockStats struct {
	InStock        int     `json:"in_stock"`
	OutOfStock     int     `json:"out_of_stock"`
	TotalUnits     int64   `json:"total_units"`
	InStockPercent float64 `json:"in_stock_percent"`
}

// AvailableAttributes maps each attribute group name to the sorted set of
// distinct value names appearing across all variants of the given products.
func AvailableAttributes(products []domain.ResolvedProduct) map[string][]string {
	seen := make(map[string]map[string]struct{})
	for i := range products {
		for _, v := range products[i].Variants {
			for _, a := range v.Attributes {
				values, ok := seen[a.GroupName]
				if !ok {
					values = make(map[string]struct{})
					seen[a.GroupName] = values
				}
				values[a.ValueName] = struct{}{}
			}
		}
	}

	out := make(map[string][]string, len(seen))
	for group, values := range seen {
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)
		out[group] = names
	}
	return out
}

// PriceRangeOf returns the overall [min, max] across every product's price
// range bounds. The second return value is false when products is empty.
func PriceRangeOf(products []domain.ResolvedProduct) (domain.PriceRange, bool) {
	if len(products) == 0 {
		return domain.PriceRange{}, false
	}
	overall := products[0].PriceRange
	for i := range products[1:] {
		pr := products[i+1].PriceRange
		if pr.Min.LessThan(overall.Min) {
			overall.Min = pr.Min
		}
		if pr.Max.GreaterThan(overall.Max) {
			overall.Max = pr.Max
		}
	}
	return overall, true
}

// StockStatistics counts in-stock vs out-of-stock products and sums stock
// units across the collection.
func StockStatistics(products []domain.ResolvedProduct) StockStats {
	var stats StockStats
	for i := range products {
		if products[i].HasStock {
			stats.InStock++
		} else {
			stats.OutOfStock++
		}
		stats.TotalUnits += int64(products[i].TotalStock)
	}
	if len(products) > 0 {
		stats.InStockPercent = float64(stats.InStock) / float64(len(products)) * 100
	}
	return stats
}

// AvailableAttributeValues returns the values still selectable for the
// target group given a partial selection on the other groups, so a variant
// picker can grey out combinations that would produce no purchasable
// variant. Variants are first narrowed to those matching every constraint
// in otherSelections (target group excluded), then the target group's
// values among the survivors are collected, in first-seen order.
func AvailableAttributeValues(variants []domain.Variant, groupID string, otherSelections map[string]string) []domain.AttributeAssignment {
	var out []domain.AttributeAssignment
	seen := make(map[string]struct{})

	for i := range variants {
		if !matchesSelections(&variants[i], groupID, otherSelections) {
			continue
		}
		a, ok := variants[i].AttributeValue(groupID)
		if !ok {
			continue
		}
		if _, dup := seen[a.ValueID]; dup {
			continue
		}
		seen[a.ValueID] = struct{}{}
		out = append(out, a)
	}
	return out
}

func matchesSelections(v *domain.Variant, targetGroupID string, selections map[string]string) bool {
	for groupID, valueID := range selections {
		if groupID == targetGroupID {
			continue
		}
		a, ok := v.AttributeValue(groupID)
		if !ok || a.ValueID != valueID {
			return false
		}
	}
	return true
}
