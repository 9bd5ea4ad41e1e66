package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UpdateJournal implements domain.UpdateJournal using PostgreSQL. Each
// record becomes one row; insertion order within an Append preserves record
// order via the serial primary key.
type UpdateJournal struct {
	pool *pgxpool.Pool
}

// NewUpdateJournal creates an UpdateJournal backed by the given connection
// pool.
func NewUpdateJournal(pool *pgxpool.Pool) *UpdateJournal {
	return &UpdateJournal{pool: pool}
}

// Append inserts the records sequentially and stops at the first failure.
// Rows inserted before a failure stay committed; the append contract is
// at-least-once, not transactional.
func (j *UpdateJournal) Append(ctx context.Context, records []string) error {
	const query = `INSERT INTO price_updates (record) VALUES ($1)`
	for i, r := range records {
		if _, err := j.pool.Exec(ctx, query, r); err != nil {
			return fmt.Errorf("postgres: append record %d of %d: %w", i+1, len(records), err)
		}
	}
	return nil
}
