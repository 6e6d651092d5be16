package catalog

import (
	"sort"
	"strings"

	"storefront-catalog-service/internal/domain"
)

// sortProducts orders products in place by key and direction. Ties on the
// key always break by ascending id regardless of direction, so pagination
// stays reproducible across repeated calls on identical input.
func sortProducts(products []domain.ResolvedProduct, key SortKey, dir SortDirection) {
	if key == "" {
		key = SortKeyID
	}
	desc := dir == SortDesc

	sort.SliceStable(products, func(i, j int) bool {
		c := compareByKey(&products[i], &products[j], key)
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return domain.CompareIDs(products[i].ID, products[j].ID) < 0
	})
}

func compareByKey(a, b *domain.ResolvedProduct, key SortKey) int {
	switch key {
	case SortKeyPrice:
		return a.DisplayPrice.Cmp(b.DisplayPrice)
	case SortKeyName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortKeyStock:
		switch {
		case a.TotalStock < b.TotalStock:
			return -1
		case a.TotalStock > b.TotalStock:
			return 1
		default:
			return 0
		}
	default: // SortKeyID
		return domain.CompareIDs(a.ID, b.ID)
	}
}
