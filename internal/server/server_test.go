package server_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"marketd/internal/market"
	"marketd/internal/quoteapi"
	"marketd/internal/quotegen"
	"marketd/internal/server"
	"marketd/internal/server/interceptor"
	"marketd/internal/service"
)

const testToken = "jwt-token"

// clockAt builds a clock whose offset maps the current wall time onto the
// given time of day, making open/closed outcomes independent of when the
// test runs.
func clockAt(t *testing.T, hour int) *market.Clock {
	t.Helper()
	now := time.Now().UTC()
	anchor := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	c, err := market.New("09:30", "16:00", now.Sub(anchor), quoteapi.ServiceName)
	require.NoError(t, err)
	return c
}

func openClock(t *testing.T) *market.Clock   { return clockAt(t, 12) }
func closedClock(t *testing.T) *market.Clock { return clockAt(t, 20) }

type fakeJournal struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeJournal) Append(ctx context.Context, records []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), records...))
	return nil
}

func startServer(t *testing.T, clock *market.Clock, journal *fakeJournal) *quoteapi.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.New(clock, quotegen.New(), journal, service.Config{
		StreamMaxQuotes: 2,
		StreamInterval:  5 * time.Millisecond,
		DeadlineMargin:  time.Second,
		BatchSize:       2,
	}, logger)

	srv := server.New(server.Config{Addr: "bufnet", AuthToken: testToken}, svc, logger)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(quoteapi.CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })

	return quoteapi.NewClient(cc)
}

func authed(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, interceptor.AuthHeader, testToken)
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGetQuoteEndToEnd(t *testing.T) {
	client := startServer(t, openClock(t), &fakeJournal{})

	var trailer metadata.MD
	q, err := client.GetQuote(authed(testCtx(t)), &quoteapi.QuoteRequest{Symbol: "ACME"}, grpc.Trailer(&trailer))
	require.NoError(t, err)

	assert.Equal(t, "ACME", q.Symbol)
	assert.GreaterOrEqual(t, q.Price, 50.0)
	assert.LessOrEqual(t, q.Price, 300.0)

	ids := trailer.Get(interceptor.TraceIDHeader)
	require.Len(t, ids, 1, "server must mint a trace id when the client sends none")
	assert.NotEmpty(t, ids[0])
}

func TestExistingTraceIDIsNotReEmitted(t *testing.T) {
	client := startServer(t, openClock(t), &fakeJournal{})

	ctx := metadata.AppendToOutgoingContext(authed(testCtx(t)), interceptor.TraceIDHeader, "client-supplied")
	var trailer metadata.MD
	_, err := client.GetQuote(ctx, &quoteapi.QuoteRequest{Symbol: "ACME"}, grpc.Trailer(&trailer))
	require.NoError(t, err)

	assert.Empty(t, trailer.Get(interceptor.TraceIDHeader))
}

func TestUnauthenticatedCallsAreRejected(t *testing.T) {
	journal := &fakeJournal{}
	client := startServer(t, openClock(t), journal)

	_, err := client.GetQuote(testCtx(t), &quoteapi.QuoteRequest{Symbol: "ACME"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(testCtx(t), interceptor.AuthHeader, "wrong")
	_, err = client.GetQuote(ctx, &quoteapi.QuoteRequest{Symbol: "ACME"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	// The stream shapes go through the same pipeline. The rejection may
	// surface on stream setup or on the first receive.
	stream, err := client.StreamQuotes(testCtx(t), &quoteapi.QuoteRequest{Symbol: "ACME"})
	if err == nil {
		_, err = stream.Recv()
	}
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	assert.Empty(t, journal.calls, "no handler logic may run on a rejected call")
}

func TestClosedMarketDetailSurvivesTheWire(t *testing.T) {
	client := startServer(t, closedClock(t), &fakeJournal{})

	_, err := client.GetQuote(authed(testCtx(t)), &quoteapi.QuoteRequest{Symbol: "ACME"})
	require.Error(t, err)

	st := status.Convert(err)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	details := st.Details()
	require.Len(t, details, 1)
	pf, ok := details[0].(*errdetails.PreconditionFailure)
	require.True(t, ok, "detail should be a PreconditionFailure, got %T", details[0])
	require.Len(t, pf.Violations, 1)
	assert.Equal(t, "MARKET_HOURS", pf.Violations[0].Type)
}

func TestStreamQuotesEndToEnd(t *testing.T) {
	client := startServer(t, openClock(t), &fakeJournal{})

	stream, err := client.StreamQuotes(authed(testCtx(t)), &quoteapi.QuoteRequest{Symbol: "ACME"})
	require.NoError(t, err)

	var quotes []*quoteapi.Quote
	for {
		q, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		quotes = append(quotes, q)
	}
	assert.Len(t, quotes, 2)
}

func TestIngestUpdatesEndToEnd(t *testing.T) {
	journal := &fakeJournal{}
	client := startServer(t, openClock(t), journal)

	stream, err := client.IngestUpdates(authed(testCtx(t)))
	require.NoError(t, err)
	for _, price := range []float64{101.5, 102.25, 103.0} {
		require.NoError(t, stream.Send(&quoteapi.PriceUpdate{Symbol: "ACME", Price: price}))
	}
	sum, err := stream.CloseAndRecv()
	require.NoError(t, err)

	assert.Equal(t, int64(3), sum.Accepted)
	require.Len(t, journal.calls, 2, "one batch flush plus the end-of-stream flush")
	assert.Len(t, journal.calls[0], 2)
	assert.Len(t, journal.calls[1], 1)
}

func TestIngestUpdatesRejectsInvalidItem(t *testing.T) {
	client := startServer(t, openClock(t), &fakeJournal{})

	stream, err := client.IngestUpdates(authed(testCtx(t)))
	require.NoError(t, err)
	require.NoError(t, stream.Send(&quoteapi.PriceUpdate{Symbol: "AB", Price: -1}))

	_, err = stream.CloseAndRecv()
	require.Error(t, err)
	st := status.Convert(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	require.Len(t, st.Details(), 1)
	br, ok := st.Details()[0].(*errdetails.BadRequest)
	require.True(t, ok)
	require.Len(t, br.FieldViolations, 2)
	assert.Equal(t, "price", br.FieldViolations[0].Field)
	assert.Equal(t, "symbol", br.FieldViolations[1].Field)
}

func TestWatchEndToEnd(t *testing.T) {
	client := startServer(t, openClock(t), &fakeJournal{})

	stream, err := client.Watch(authed(testCtx(t)))
	require.NoError(t, err)

	for _, symbol := range []string{"ACME", "GLOBX"} {
		require.NoError(t, stream.Send(&quoteapi.QuoteRequest{Symbol: symbol}))
		q, err := stream.Recv()
		require.NoError(t, err)
		assert.Equal(t, symbol, q.Symbol)
	}

	require.NoError(t, stream.CloseSend())
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}
