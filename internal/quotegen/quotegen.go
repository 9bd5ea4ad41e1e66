// Package quotegen produces synthetic price quotes, a stand-in for a real
// price feed.
package quotegen

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"marketd/internal/quoteapi"
)

// Price bounds of the synthetic feed, inclusive of the lower bound.
const (
	minPrice = 50.0
	maxPrice = 300.0
)

// Generator produces quotes with uniformly distributed prices. The zero
// value is not usable; construct with New.
type Generator struct {
	now func() time.Time
}

// New returns a Generator stamping quotes with the current UTC time.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithNow returns a Generator with an injected time source, for tests.
func NewWithNow(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Quote returns a fresh quote for symbol: uniform price in [50.00, 300.00]
// rounded to 2 decimal digits, timestamp in whole seconds since epoch, UTC.
// Not reproducible or seedable.
func (g *Generator) Quote(symbol string) *quoteapi.Quote {
	raw := minPrice + rand.Float64()*(maxPrice-minPrice)
	price, _ := decimal.NewFromFloat(raw).Round(2).Float64()
	return &quoteapi.Quote{
		Symbol:    symbol,
		Price:     price,
		Timestamp: g.now().UTC().Unix(),
	}
}
