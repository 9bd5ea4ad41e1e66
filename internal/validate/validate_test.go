package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketd/internal/quoteapi"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		update     quoteapi.PriceUpdate
		wantFields []string
	}{
		{
			name:       "valid four char symbol",
			update:     quoteapi.PriceUpdate{Symbol: "ABCD", Price: 10.0},
			wantFields: nil,
		},
		{
			name:       "valid five char symbol",
			update:     quoteapi.PriceUpdate{Symbol: "ABCDE", Price: 0.01},
			wantFields: nil,
		},
		{
			name:       "symbol too short",
			update:     quoteapi.PriceUpdate{Symbol: "AB", Price: 10.0},
			wantFields: []string{"symbol"},
		},
		{
			name:       "symbol too long",
			update:     quoteapi.PriceUpdate{Symbol: "ABCDEF", Price: 10.0},
			wantFields: []string{"symbol"},
		},
		{
			name:       "negative price",
			update:     quoteapi.PriceUpdate{Symbol: "ABCD", Price: -1},
			wantFields: []string{"price"},
		},
		{
			name:       "zero price",
			update:     quoteapi.PriceUpdate{Symbol: "ABCD", Price: 0},
			wantFields: []string{"price"},
		},
		{
			name:       "both invalid, price reported first",
			update:     quoteapi.PriceUpdate{Symbol: "A", Price: -1},
			wantFields: []string{"price", "symbol"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := Check(&tt.update)
			require.Len(t, violations, len(tt.wantFields))
			for i, field := range tt.wantFields {
				assert.Equal(t, field, violations[i].Field)
				assert.NotEmpty(t, violations[i].Description)
			}
		})
	}
}

func TestStatusEmpty(t *testing.T) {
	assert.NoError(t, Status(nil))
}

func TestStatusCarriesFieldViolationsInOrder(t *testing.T) {
	err := Status(Check(&quoteapi.PriceUpdate{Symbol: "A", Price: -1}))
	require.Error(t, err)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())

	details := st.Details()
	require.Len(t, details, 1)
	br, ok := details[0].(*errdetails.BadRequest)
	require.True(t, ok, "detail should be a BadRequest, got %T", details[0])
	require.Len(t, br.FieldViolations, 2)
	assert.Equal(t, "price", br.FieldViolations[0].Field)
	assert.Equal(t, "symbol", br.FieldViolations[1].Field)
}
