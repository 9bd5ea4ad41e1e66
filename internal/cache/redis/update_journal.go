package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// journalMaxLen is the approximate maximum length of the journal stream,
// enforced via XADD MAXLEN ~.
const journalMaxLen int64 = 100000

// UpdateJournal implements domain.UpdateJournal on a Redis stream. XADD
// assigns monotonically increasing ids, preserving record order within an
// Append.
type UpdateJournal struct {
	rdb    *redis.Client
	stream string
}

// NewUpdateJournal creates an UpdateJournal appending to the named stream.
func NewUpdateJournal(c *Client, stream string) *UpdateJournal {
	return &UpdateJournal{rdb: c.Underlying(), stream: stream}
}

// Append adds the records to the stream sequentially and stops at the first
// failure.
func (j *UpdateJournal) Append(ctx context.Context, records []string) error {
	for i, r := range records {
		err := j.rdb.XAdd(ctx, &redis.XAddArgs{
			Stream: j.stream,
			MaxLen: journalMaxLen,
			Approx: true,
			Values: map[string]any{"record": r},
		}).Err()
		if err != nil {
			return fmt.Errorf("redis: append record %d of %d to %s: %w", i+1, len(records), j.stream, err)
		}
	}
	return nil
}
