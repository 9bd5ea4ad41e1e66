// Package service implements the stockmarket.QuoteService business logic:
// market-hours gating, request validation, deadline-bounded streaming, and
// batched persistence of client-submitted updates.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketd/internal/domain"
	"marketd/internal/market"
	"marketd/internal/quoteapi"
	"marketd/internal/quotegen"
	"marketd/internal/validate"
)

// Config carries the tunables of the streaming and ingest paths.
type Config struct {
	// StreamMaxQuotes bounds the number of quotes one StreamQuotes call may
	// emit.
	StreamMaxQuotes int
	// StreamInterval is the pause between quote emissions.
	StreamInterval time.Duration
	// DeadlineMargin is subtracted from the call deadline so the last write
	// completes before the transport deadline fires.
	DeadlineMargin time.Duration
	// BatchSize is the number of buffered updates that triggers a journal
	// flush during ingest.
	BatchSize int
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		StreamMaxQuotes: 5,
		StreamInterval:  2 * time.Second,
		DeadlineMargin:  3 * time.Second,
		BatchSize:       2,
	}
}

// QuoteService implements quoteapi.QuoteServiceServer. All mutable state is
// call-local; the service itself is safe for concurrent calls.
type QuoteService struct {
	clock   *market.Clock
	gen     *quotegen.Generator
	journal domain.UpdateJournal
	cfg     Config
	logger  *slog.Logger

	// Injected time hooks, overridden in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

var _ quoteapi.QuoteServiceServer = (*QuoteService)(nil)

// New creates a QuoteService with all required dependencies.
func New(clock *market.Clock, gen *quotegen.Generator, journal domain.UpdateJournal, cfg Config, logger *slog.Logger) *QuoteService {
	return &QuoteService{
		clock:   clock,
		gen:     gen,
		journal: journal,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "quote_service")),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// quote is the single-shot quote operation shared by every call shape: the
// market-hours gate followed by synthetic quote generation.
func (s *QuoteService) quote(symbol string) (*quoteapi.Quote, error) {
	if err := s.clock.EnsureOpen(s.now()); err != nil {
		return nil, err
	}
	return s.gen.Quote(symbol), nil
}

// GetQuote returns one quote for the requested symbol.
func (s *QuoteService) GetQuote(ctx context.Context, req *quoteapi.QuoteRequest) (*quoteapi.Quote, error) {
	q, err := s.quote(req.Symbol)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "quote served",
		slog.String("symbol", q.Symbol),
		slog.Float64("price", q.Price),
	)
	return q, nil
}

// StreamQuotes emits up to StreamMaxQuotes quotes, pausing StreamInterval
// between emissions, and stops DeadlineMargin ahead of the call deadline.
// Termination by any bound is normal completion; cancellation is observed
// cooperatively at the loop guard, never mid-pause.
func (s *QuoteService) StreamQuotes(req *quoteapi.QuoteRequest, stream quoteapi.QuoteSendStream) error {
	ctx := stream.Context()

	deadline, hasDeadline := ctx.Deadline()
	effective := deadline.Add(-s.cfg.DeadlineMargin)
	if hasDeadline && !s.now().Before(effective) {
		return status.Error(codes.Canceled, "deadline time error")
	}

	sent := 0
	for ctx.Err() == nil && sent < s.cfg.StreamMaxQuotes && (!hasDeadline || s.now().Before(effective)) {
		q, err := s.quote(req.Symbol)
		if err != nil {
			return err
		}
		if err := stream.Send(q); err != nil {
			return err
		}
		sent++
		s.sleep(s.cfg.StreamInterval)
	}

	s.logger.InfoContext(ctx, "quote stream finished",
		slog.String("symbol", req.Symbol),
		slog.Int("sent", sent),
	)
	return nil
}

// IngestUpdates consumes price updates, journaling them in batches of
// BatchSize and once more at end of stream. A closed market, a validation
// failure, or a journal failure aborts the entire call; updates buffered but
// not yet flushed at that point are lost.
func (s *QuoteService) IngestUpdates(stream quoteapi.UpdateRecvStream) error {
	ctx := stream.Context()

	buf := make([]string, 0, s.cfg.BatchSize)
	var accepted int64
	for {
		u, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			// End-of-stream flush runs even for an empty buffer so every
			// call closes with a completed journal write.
			if err := s.flush(ctx, buf); err != nil {
				return err
			}
			s.logger.InfoContext(ctx, "ingest finished", slog.Int64("accepted", accepted))
			return stream.SendAndClose(&quoteapi.IngestSummary{Accepted: accepted})
		}
		if err != nil {
			return err
		}

		if err := s.clock.EnsureOpen(s.now()); err != nil {
			return err
		}
		if violations := validate.Check(u); len(violations) > 0 {
			return validate.Status(violations)
		}

		buf = append(buf, u.Record())
		accepted++
		if accepted%int64(s.cfg.BatchSize) == 0 {
			if err := s.flush(ctx, buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
}

func (s *QuoteService) flush(ctx context.Context, records []string) error {
	if err := s.journal.Append(ctx, records); err != nil {
		return status.Errorf(codes.Internal, "journal updates: %v", err)
	}
	s.logger.DebugContext(ctx, "flushed updates", slog.Int("count", len(records)))
	return nil
}

// Watch answers each inbound request with exactly one quote and returns when
// the client closes its side.
func (s *QuoteService) Watch(stream quoteapi.WatchStream) error {
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		q, err := s.quote(req.Symbol)
		if err != nil {
			return err
		}
		if err := stream.Send(q); err != nil {
			return err
		}
	}
}
