package pricing

import (
	"github.com/sirupsen/logrus"
)

// AnomalyCode classifies a non-fatal data problem found during resolution.
type AnomalyCode string

const (
	// AnomalyMalformedRule marks a rule with an unknown reduction type, a
	// negative reduction value or a percentage above 100. The rule is
	// skipped, never applied.
	AnomalyMalformedRule AnomalyCode = "malformed_rule"
	// AnomalyNegativePrice marks a base-plus-delta price that would have
	// gone below zero and was clamped.
	AnomalyNegativePrice AnomalyCode = "negative_price"
	// AnomalyMissingDefaultVariant marks a multi-variant product with no
	// variant flagged as default; the first variant was used.
	AnomalyMissingDefaultVariant AnomalyCode = "missing_default_variant"
)

// Anomaly describes a data problem the resolver worked around. Resolution
// always continues; anomalies are the side channel the caller observes.
type Anomaly struct {
	Code      AnomalyCode
	ProductID string
	VariantID string // Empty when the anomaly concerns the base product
	Detail    string
}

// AnomalyReporter receives anomalies as they are found. Implementations
// must not block; the resolver calls them inline.
type AnomalyReporter interface {
	ReportAnomaly(a Anomaly)
}

type logReporter struct {
	log *logrus.Logger
}

// NewLogReporter returns a reporter that records anomalies as structured
// warnings through the given logrus logger.
func NewLogReporter(log *logrus.Logger) AnomalyReporter {
	return &logReporter{log: log}
}

func (r *logReporter) ReportAnomaly(a Anomaly) {
	r.log.WithFields(logrus.Fields{
		"code":       a.Code,
		"product_id": a.ProductID,
		"variant_id": a.VariantID,
	}).Warn("pricing anomaly: ", a.Detail)
}
