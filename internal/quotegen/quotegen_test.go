package quotegen

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuoteBoundsAndRounding(t *testing.T) {
	at := time.Date(2026, 3, 2, 12, 0, 0, 500_000_000, time.UTC)
	g := NewWithNow(func() time.Time { return at })

	for i := 0; i < 1000; i++ {
		q := g.Quote("ACME")
		assert.Equal(t, "ACME", q.Symbol)
		assert.GreaterOrEqual(t, q.Price, 50.0)
		assert.LessOrEqual(t, q.Price, 300.0)

		// Two fractional digits.
		cents := q.Price * 100
		assert.InDelta(t, math.Round(cents), cents, 1e-6)

		// Whole seconds, UTC.
		assert.Equal(t, at.Unix(), q.Timestamp)
	}
}

func TestQuotePricesVary(t *testing.T) {
	g := New()
	seen := make(map[float64]bool)
	for i := 0; i < 50; i++ {
		seen[g.Quote("ACME").Price] = true
	}
	assert.Greater(t, len(seen), 1, "synthetic prices should not be constant")
}
