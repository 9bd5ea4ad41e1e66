// Package quoteapi defines the wire surface of the stockmarket.QuoteService:
// message types, the JSON codec used on the wire, the hand-rolled gRPC
// service descriptor, and a typed client.
package quoteapi

import (
	"encoding/json"
	"fmt"
)

// QuoteRequest asks for a quote of a single ticker symbol.
type QuoteRequest struct {
	Symbol string `json:"symbol"`
}

// Quote is a single price observation. Immutable once produced.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	// Timestamp is whole seconds since the Unix epoch, UTC.
	Timestamp int64 `json:"timestamp"`
}

// PriceUpdate is a client-submitted price for a symbol. It is validated
// before acceptance: price must be positive and the symbol 4-5 characters.
type PriceUpdate struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// Record serializes the update into the line-oriented journal form.
func (u *PriceUpdate) Record() string {
	b, err := json.Marshal(u)
	if err != nil {
		// Two scalar fields cannot fail to marshal; keep the journal line
		// format stable even if that ever changes.
		return fmt.Sprintf(`{"symbol":%q,"price":%v}`, u.Symbol, u.Price)
	}
	return string(b)
}

// IngestSummary closes a client-streaming ingest call with the total number
// of updates accepted over the stream.
type IngestSummary struct {
	Accepted int64 `json:"accepted"`
}
