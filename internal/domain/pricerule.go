package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleScope says which price targets a promotional rule applies to.
type RuleScope string

const (
	// RuleScopeProduct applies to the base product and, by default, to any
	// variant without a rule of its own.
	RuleScopeProduct RuleScope = "product"
	// RuleScopeVariant applies only to the variant named by VariantID.
	RuleScopeVariant RuleScope = "variant"
)

// ReductionType says how a rule's ReductionValue is interpreted.
type ReductionType string

const (
	// ReductionPercentage reduces the price by ReductionValue percent (0-100).
	ReductionPercentage ReductionType = "percentage"
	// ReductionAbsolute subtracts ReductionValue currency units.
	ReductionAbsolute ReductionType = "absolute"
)

// PriceRule is a promotional ("specific") price supplied per
// product-resolution call. Rules are never persisted or mutated by the
// resolver; they are evaluated against a timestamp and a purchase quantity.
type PriceRule struct {
	Scope RuleScope `json:"scope"`
	// VariantID names the target variant when Scope is RuleScopeVariant.
	VariantID      string          `json:"variant_id,omitempty"`
	ReductionType  ReductionType   `json:"reduction_type"`
	ReductionValue decimal.Decimal `json:"reduction_value"`
	// ValidFrom/ValidTo are inclusive bounds; a nil bound is open-ended.
	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`
	// MinQuantity is the minimum purchase quantity for the rule to apply.
	// Zero is treated as the default of 1.
	MinQuantity int32 `json:"min_quantity,omitempty"`
}

// ActiveAt reports whether at falls within the rule's validity window.
func (r *PriceRule) ActiveAt(at time.Time) bool {
	if r.ValidFrom != nil && at.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && at.After(*r.ValidTo) {
		return false
	}
	return true
}

// AppliesToQuantity reports whether a purchase of qty units meets the
// rule's minimum quantity threshold.
func (r *PriceRule) AppliesToQuantity(qty int32) bool {
	min := r.MinQuantity
	if min <= 0 {
		min = 1
	}
	return qty >= min
}
