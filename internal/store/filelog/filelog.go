// Package filelog implements domain.UpdateJournal as an append-only
// line-oriented file.
package filelog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Journal appends records as newline-terminated lines to a single file. A
// mutex funnels concurrent flushes from different calls through one
// serialized append point, so records of one Append never interleave with
// another's.
type Journal struct {
	mu sync.Mutex
	f  *os.File
}

// Open creates or opens the journal file in append mode.
func Open(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("filelog: open %s: %w", path, err)
	}
	return &Journal{f: f}, nil
}

// Append writes the records in order, one line each. An empty batch is a
// no-op.
func (j *Journal) Append(ctx context.Context, records []string) error {
	if len(records) == 0 {
		return nil
	}
	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("filelog: append %d records: %w", len(records), err)
	}
	return nil
}

// Close closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}
