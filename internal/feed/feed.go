package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront-catalog-service/internal/domain"
	"storefront-catalog-service/internal/pricing"
)

// Loader reads the normalized catalog feed and resolves every record. The
// feed is produced by the upstream normalization layer: multilingual text is
// already reduced to one locale, numeric fields arrive as numbers, and
// attribute names are resolved. The loader only repairs what resolution
// cannot tolerate and logs each repair.
type Loader struct {
	path     string
	resolver *pricing.Resolver
	// purchaseQty is the quantity rules are evaluated against; catalog
	// browsing prices assume a single unit unless configured otherwise.
	purchaseQty int32
	log         *logrus.Logger
}

// NewLoader creates a Loader for the feed file at path.
func NewLoader(path string, resolver *pricing.Resolver, purchaseQty int32, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{path: path, resolver: resolver, purchaseQty: purchaseQty, log: log}
}

// Load reads the feed, repairs records where needed and resolves them at
// the given evaluation time.
func (l *Loader) Load(at time.Time) ([]domain.ResolvedProduct, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("feed: failed to read %s: %w", l.path, err)
	}

	var raws []domain.RawProduct
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("feed: failed to decode %s: %w", l.path, err)
	}

	for i := range raws {
		l.repair(&raws[i])
	}

	resolved := l.resolver.ResolveAll(raws, at, l.purchaseQty)
	l.log.WithFields(logrus.Fields{
		"path":     l.path,
		"products": len(resolved),
	}).Info("catalog feed loaded")
	return resolved, nil
}

// repair fixes the record-level defects resolution cannot tolerate: a
// missing id (a generated one keeps the record addressable) and a negative
// base price (clamped so the resolver's contract holds).
func (l *Loader) repair(raw *domain.RawProduct) {
	if raw.ID == "" {
		raw.ID = uuid.NewString()
		l.log.WithField("name", raw.Name).Warn("feed record missing id, generated one")
	}
	if raw.BasePrice.IsNegative() {
		l.log.WithFields(logrus.Fields{
			"product_id": raw.ID,
			"base_price": raw.BasePrice,
		}).Warn("feed record has negative base price, clamped to 0")
		raw.BasePrice = decimal.Zero
	}
	for i := range raw.Variants {
		if raw.Variants[i].ProductID == "" {
			raw.Variants[i].ProductID = raw.ID
		}
	}
}
