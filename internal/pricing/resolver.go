package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-catalog-service/internal/domain"
)

var (
	oneHundred = decimal.NewFromInt(100)
)

// Resolver turns raw products into resolved ones: effective prices per
// variant, display price, price range, stock flags and sale state. It holds
// no per-call state and is safe for concurrent use.
type Resolver struct {
	reporter AnomalyReporter
}

// NewResolver creates a Resolver reporting anomalies through the given
// reporter. A nil reporter falls back to logging via the standard logrus
// logger.
func NewResolver(reporter AnomalyReporter) *Resolver {
	if reporter == nil {
		reporter = NewLogReporter(logrus.StandardLogger())
	}
	return &Resolver{reporter: reporter}
}

// Resolve computes the ResolvedProduct for one raw product. Rules are
// evaluated at the given timestamp against the given purchase quantity
// (values below 1 are treated as 1). The input is never mutated; resolving
// the same input twice at the same timestamp yields identical output.
func (r *Resolver) Resolve(raw domain.RawProduct, at time.Time, purchaseQty int32) domain.ResolvedProduct {
	if purchaseQty < 1 {
		purchaseQty = 1
	}

	basePrice := raw.BasePrice
	if basePrice.IsNegative() {
		r.reporter.ReportAnomaly(Anomaly{
			Code:      AnomalyNegativePrice,
			ProductID: raw.ID,
			Detail:    fmt.Sprintf("base price %s is negative, clamped to 0", basePrice),
		})
		basePrice = decimal.Zero
	}

	rules := r.filterRules(raw, at, purchaseQty)

	out := domain.ResolvedProduct{
		ID:                  raw.ID,
		Name:                raw.Name,
		Description:         raw.Description,
		ShortDescription:    raw.ShortDescription,
		CategoryID:          raw.CategoryID,
		ManufacturerID:      raw.ManufacturerID,
		BasePrice:           raw.BasePrice,
		IsSimple:            raw.IsSimple,
		SimpleStockQuantity: raw.SimpleStockQuantity,
	}

	if raw.IsSimple || len(raw.Variants) == 0 {
		out.IsSimple = true
		unadjusted := basePrice.Round(2)
		out.DisplayPrice = effectivePrice(basePrice, selectRule(rules, ""))
		out.PriceRange = domain.PriceRange{Min: out.DisplayPrice, Max: out.DisplayPrice}
		out.HasStock = raw.SimpleStockQuantity > 0
		out.AllInStock = raw.SimpleStockQuantity > 0
		out.TotalStock = raw.SimpleStockQuantity
		out.OnSale = out.DisplayPrice.LessThan(unadjusted)
		out.DiscountPercentage = discountPercent(unadjusted, out.DisplayPrice)
		return out
	}

	variants := make([]domain.Variant, len(raw.Variants))
	copy(variants, raw.Variants)

	allInStock := len(variants) > 0
	for i := range variants {
		v := &variants[i]
		unadjusted := basePrice.Add(v.PriceDelta)
		if unadjusted.IsNegative() {
			r.reporter.ReportAnomaly(Anomaly{
				Code:      AnomalyNegativePrice,
				ProductID: raw.ID,
				VariantID: v.ID,
				Detail:    fmt.Sprintf("price delta %s drives price below zero, clamped to 0", v.PriceDelta),
			})
			unadjusted = decimal.Zero
		}
		v.FinalPrice = effectivePrice(unadjusted, selectRule(rules, v.ID))

		out.HasStock = out.HasStock || v.Quantity > 0
		allInStock = allInStock && v.Quantity > 0
		out.TotalStock += v.Quantity
	}
	out.Variants = variants
	out.AllInStock = allInStock

	out.PriceRange = variantPriceRange(variants)

	def, explicit := out.DefaultVariant()
	if !explicit {
		r.reporter.ReportAnomaly(Anomaly{
			Code:      AnomalyMissingDefaultVariant,
			ProductID: raw.ID,
			Detail:    "no variant flagged as default, falling back to the first variant",
		})
	}
	out.DisplayPrice = def.FinalPrice

	defUnadjusted := basePrice.Add(def.PriceDelta)
	if defUnadjusted.IsNegative() {
		defUnadjusted = decimal.Zero
	}
	defUnadjusted = defUnadjusted.Round(2)
	out.OnSale = out.DisplayPrice.LessThan(defUnadjusted)
	out.DiscountPercentage = discountPercent(defUnadjusted, out.DisplayPrice)

	return out
}

// ResolveAll resolves a batch at one evaluation time. A malformed record
// never aborts the batch; anomalies flow through the reporter.
func (r *Resolver) ResolveAll(raws []domain.RawProduct, at time.Time, purchaseQty int32) []domain.ResolvedProduct {
	resolved := make([]domain.ResolvedProduct, 0, len(raws))
	for _, raw := range raws {
		resolved = append(resolved, r.Resolve(raw, at, purchaseQty))
	}
	return resolved
}

// filterRules drops rules that are malformed or not applicable at the
// evaluation time/quantity, reporting the malformed ones. Input order is
// preserved: it is the documented tie-break between equally scoped rules.
func (r *Resolver) filterRules(raw domain.RawProduct, at time.Time, qty int32) []domain.PriceRule {
	usable := make([]domain.PriceRule, 0, len(raw.Rules))
	for _, rule := range raw.Rules {
		if reason := malformedReason(rule); reason != "" {
			r.reporter.ReportAnomaly(Anomaly{
				Code:      AnomalyMalformedRule,
				ProductID: raw.ID,
				VariantID: rule.VariantID,
				Detail:    reason,
			})
			continue
		}
		if !rule.ActiveAt(at) || !rule.AppliesToQuantity(qty) {
			continue
		}
		usable = append(usable, rule)
	}
	return usable
}

// malformedReason returns a non-empty description when the rule is outside
// its domain and must be skipped.
func malformedReason(rule domain.PriceRule) string {
	switch rule.ReductionType {
	case domain.ReductionPercentage:
		if rule.ReductionValue.IsNegative() {
			return "percentage reduction is negative"
		}
		if rule.ReductionValue.GreaterThan(oneHundred) {
			return "percentage reduction exceeds 100"
		}
	case domain.ReductionAbsolute:
		if rule.ReductionValue.IsNegative() {
			return "absolute reduction is negative"
		}
	default:
		return fmt.Sprintf("unknown reduction type %q", rule.ReductionType)
	}
	return ""
}

// selectRule picks the single applicable rule for one price target:
// a variant-specific rule for that exact variant wins over a product-wide
// one, and within equal specificity the first supplied rule wins. The base
// product only ever matches product-wide rules (empty variantID).
func selectRule(rules []domain.PriceRule, variantID string) *domain.PriceRule {
	if variantID != "" {
		for i := range rules {
			if rules[i].Scope == domain.RuleScopeVariant && rules[i].VariantID == variantID {
				return &rules[i]
			}
		}
	}
	for i := range rules {
		if rules[i].Scope == domain.RuleScopeProduct {
			return &rules[i]
		}
	}
	return nil
}

// effectivePrice applies the selected rule to an unadjusted price and rounds
// to minor-unit precision (2 decimals, half up). Never negative.
func effectivePrice(unadjusted decimal.Decimal, rule *domain.PriceRule) decimal.Decimal {
	price := unadjusted
	if rule != nil {
		switch rule.ReductionType {
		case domain.ReductionPercentage:
			factor := decimal.NewFromInt(1).Sub(rule.ReductionValue.Div(oneHundred))
			price = unadjusted.Mul(factor)
		case domain.ReductionAbsolute:
			price = unadjusted.Sub(rule.ReductionValue)
		}
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	return price.Round(2)
}

func variantPriceRange(variants []domain.Variant) domain.PriceRange {
	pr := domain.PriceRange{Min: variants[0].FinalPrice, Max: variants[0].FinalPrice}
	for _, v := range variants[1:] {
		if v.FinalPrice.LessThan(pr.Min) {
			pr.Min = v.FinalPrice
		}
		if v.FinalPrice.GreaterThan(pr.Max) {
			pr.Max = v.FinalPrice
		}
	}
	return pr
}

// discountPercent is the relative reduction of display against unadjusted,
// as a percentage rounded to 2 decimals. Zero when nothing was reduced.
func discountPercent(unadjusted, display decimal.Decimal) decimal.Decimal {
	if unadjusted.IsZero() || !display.LessThan(unadjusted) {
		return decimal.Zero
	}
	return unadjusted.Sub(display).Div(unadjusted).Mul(oneHundred).Round(2)
}
