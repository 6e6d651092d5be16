package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AttributeAssignment binds one variant to a value on a named axis of
// variation (e.g. group "Color", value "Red"). Group and value names arrive
// already resolved by the upstream normalization layer; the ids are kept
// alongside because filter inputs may reference either.
type AttributeAssignment struct {
	GroupID     string  `json:"group_id"`
	GroupName   string  `json:"group_name"`
	ValueID     string  `json:"value_id"`
	ValueName   string  `json:"value_name"`
	ColorSwatch *string `json:"color_swatch,omitempty"` // Hex string, set only for color-type groups
}

// Variant is a specific purchasable configuration of a product (a
// "combination" in upstream terms) with its own stock and price delta.
// FinalPrice is derived: it is zero until the pricing resolver has run.
type Variant struct {
	ID         string                `json:"id"`
	ProductID  string                `json:"product_id"` // Back-reference, not ownership
	Reference  string                `json:"reference"`  // SKU-like label
	PriceDelta decimal.Decimal       `json:"price_delta"`
	Quantity   int32                 `json:"quantity"`
	IsDefault  bool                  `json:"is_default"`
	Attributes []AttributeAssignment `json:"attributes,omitempty"`

	FinalPrice decimal.Decimal `json:"final_price"`
}

// InStock reports whether at least one unit of this variant is available.
func (v *Variant) InStock() bool {
	return v.Quantity > 0
}

// AttributeValue returns the assignment for the given group id, if any.
// Within one variant a group appears at most once.
func (v *Variant) AttributeValue(groupID string) (AttributeAssignment, bool) {
	for _, a := range v.Attributes {
		if a.GroupID == groupID {
			return a, true
		}
	}
	return AttributeAssignment{}, false
}

// PriceRange is the inclusive [Min, Max] span of effective prices across a
// product's variants. For simple products it is degenerate: Min == Max.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Contains reports whether price falls within the range (bounds inclusive).
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// RawProduct is a product as supplied by the normalized upstream feed,
// before effective prices and stock flags have been computed. The
// normalization layer guarantees numeric fields arrive as numbers and text
// fields are already reduced to the active locale.
type RawProduct struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	ShortDescription string          `json:"short_description,omitempty"`
	CategoryID       string          `json:"category_id"`
	ManufacturerID   string          `json:"manufacturer_id,omitempty"`
	BasePrice        decimal.Decimal `json:"base_price"`
	IsSimple         bool            `json:"is_simple"`
	// SimpleStockQuantity is meaningful only when IsSimple.
	SimpleStockQuantity int32       `json:"simple_stock_quantity"`
	Variants            []Variant   `json:"variants,omitempty"`
	Rules               []PriceRule `json:"rules,omitempty"`
}

// ResolvedProduct is a product with effective prices and stock flags
// populated by the pricing resolver. It is the unit the catalog engine
// filters, sorts and paginates; nothing mutates it after resolution.
type ResolvedProduct struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	CategoryID       string `json:"category_id"`
	ManufacturerID   string `json:"manufacturer_id,omitempty"`

	BasePrice           decimal.Decimal `json:"base_price"`
	IsSimple            bool            `json:"is_simple"`
	SimpleStockQuantity int32           `json:"simple_stock_quantity"`
	Variants            []Variant       `json:"variants,omitempty"`

	// Derived by the resolver.
	DisplayPrice       decimal.Decimal `json:"display_price"`
	PriceRange         PriceRange      `json:"price_range"`
	HasStock           bool            `json:"has_stock"`
	AllInStock         bool            `json:"all_in_stock"`
	TotalStock         int32           `json:"total_stock"`
	OnSale             bool            `json:"on_sale"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// DefaultVariant returns the variant flagged as default, or the first
// variant when none is flagged (upstream data occasionally omits the flag).
// The second return value is false when the fallback was taken, so callers
// can surface the data-quality condition. Returns nil for simple products.
func (p *ResolvedProduct) DefaultVariant() (*Variant, bool) {
	if len(p.Variants) == 0 {
		return nil, false
	}
	for i := range p.Variants {
		if p.Variants[i].IsDefault {
			return &p.Variants[i], true
		}
	}
	return &p.Variants[0], false
}

// CompareIDs orders two product or variant identifiers. Upstream ids are
// auto-increment integers serialized as strings, so numeric order is used
// when both sides parse; otherwise plain lexicographic order applies.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
