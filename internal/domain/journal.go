package domain

import "context"

// UpdateJournal is the append-only sink for accepted price updates. Records
// are line-oriented serialized updates; an implementation must preserve the
// order of records within a single Append and tolerate concurrent Append
// calls from different RPCs. Delivery is at-least-once; there is no
// transactional guarantee beyond a completed Append.
type UpdateJournal interface {
	Append(ctx context.Context, records []string) error
}
