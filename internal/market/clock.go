// Package market decides whether the trading window is open at a given
// instant.
package market

import (
	"fmt"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// violationType tags the precondition-failure detail emitted for closed
// markets, so clients can branch on it programmatically.
const violationType = "MARKET_HOURS"

// Clock holds the daily trading window, fixed for the process lifetime. The
// window is expressed as times of day and compared against the current
// instant after subtracting a fixed timezone-normalization offset.
type Clock struct {
	open    time.Duration
	close   time.Duration
	offset  time.Duration
	subject string
}

// New parses open and close as "HH:MM" times of day. offset is subtracted
// from the instant under test before the window comparison.
func New(open, close string, offset time.Duration, subject string) (*Clock, error) {
	o, err := parseTimeOfDay(open)
	if err != nil {
		return nil, fmt.Errorf("market: open time: %w", err)
	}
	c, err := parseTimeOfDay(close)
	if err != nil {
		return nil, fmt.Errorf("market: close time: %w", err)
	}
	if c <= o {
		return nil, fmt.Errorf("market: close %s must be after open %s", close, open)
	}
	return &Clock{open: o, close: c, offset: offset, subject: subject}, nil
}

// EnsureOpen returns nil when the market is open at now, and a
// FailedPrecondition status carrying one precondition violation otherwise.
// Pure function of now and the fixed window.
func (c *Clock) EnsureOpen(now time.Time) error {
	adjusted := now.UTC().Add(-c.offset)
	tod := time.Duration(adjusted.Hour())*time.Hour +
		time.Duration(adjusted.Minute())*time.Minute +
		time.Duration(adjusted.Second())*time.Second

	// Half-open interval: a trade at the close instant is rejected.
	if tod >= c.open && tod < c.close {
		return nil
	}

	st := status.New(codes.FailedPrecondition, "market is closed")
	withDetails, err := st.WithDetails(&errdetails.PreconditionFailure{
		Violations: []*errdetails.PreconditionFailure_Violation{
			{
				Type:        violationType,
				Subject:     c.subject,
				Description: fmt.Sprintf("trading window is %s-%s", formatTimeOfDay(c.open), formatTimeOfDay(c.close)),
			},
		},
	})
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// Window reports the configured open and close times of day.
func (c *Clock) Window() (open, close string) {
	return formatTimeOfDay(c.open), formatTimeOfDay(c.close)
}

func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse %q as HH:MM: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func formatTimeOfDay(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
