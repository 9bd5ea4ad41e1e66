// Package validate checks client-submitted price updates against their field
// constraints, accumulating every violation instead of failing on the first.
package validate

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketd/internal/quoteapi"
)

const (
	minSymbolLen = 4
	maxSymbolLen = 5
)

// Violation names a failing field together with a human-readable
// description.
type Violation struct {
	Field       string
	Description string
}

// Check evaluates every constraint on u regardless of earlier failures and
// returns the violations in fixed order: price first, then symbol. An empty
// result means the update is valid.
func Check(u *quoteapi.PriceUpdate) []Violation {
	var violations []Violation
	if u.Price <= 0 {
		violations = append(violations, Violation{
			Field:       "price",
			Description: fmt.Sprintf("price must be positive, got %v", u.Price),
		})
	}
	if n := len(u.Symbol); n < minSymbolLen || n > maxSymbolLen {
		violations = append(violations, Violation{
			Field:       "symbol",
			Description: fmt.Sprintf("symbol must be %d-%d characters, got %d", minSymbolLen, maxSymbolLen, n),
		})
	}
	return violations
}

// Status converts a non-empty violation list into an InvalidArgument status
// carrying one field-violation detail per entry, preserving order. Calling
// it with no violations is a programming error and returns nil.
func Status(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	fieldViolations := make([]*errdetails.BadRequest_FieldViolation, 0, len(violations))
	for _, v := range violations {
		fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       v.Field,
			Description: v.Description,
		})
	}
	st := status.New(codes.InvalidArgument, "invalid price update")
	withDetails, err := st.WithDetails(&errdetails.BadRequest{FieldViolations: fieldViolations})
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}
