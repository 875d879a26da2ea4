package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

// ListBlockedPeriods returns blocks dated within [from, to).
func (s *Store) ListBlockedPeriods(ctx context.Context, from, to time.Time) ([]scheduling.BlockedPeriod, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, block_date, all_day, start_at, end_at, reason
		FROM blocked_periods
		WHERE block_date >= $1::date AND block_date < $2::date
		ORDER BY block_date ASC, start_at ASC NULLS FIRST`,
		from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("store: list blocked periods: %w", err)
	}
	defer rows.Close()

	var out []scheduling.BlockedPeriod
	for rows.Next() {
		var b scheduling.BlockedPeriod
		var start, end *time.Time
		if err := rows.Scan(&b.ID, &b.Date, &b.AllDay, &start, &end, &b.Reason); err != nil {
			return nil, fmt.Errorf("store: scan blocked period: %w", err)
		}
		b.Date = dateIn(b.Date, s.loc)
		if start != nil {
			b.Start = start.In(s.loc)
		}
		if end != nil {
			b.End = end.In(s.loc)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBlockedPeriod inserts a block. Partial blocks keep their times;
// all-day blocks store NULL times.
func (s *Store) CreateBlockedPeriod(ctx context.Context, b scheduling.BlockedPeriod) error {
	var start, end *time.Time
	if !b.AllDay {
		if !b.Start.IsZero() {
			start = &b.Start
		}
		if !b.End.IsZero() {
			end = &b.End
		}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO blocked_periods (id, block_date, all_day, start_at, end_at, reason)
		VALUES ($1, $2::date, $3, $4, $5, $6)`,
		b.ID, b.Date.Format(time.DateOnly), b.AllDay, start, end, b.Reason,
	)
	if err != nil {
		return fmt.Errorf("store: create blocked period: %w", err)
	}
	return nil
}

// DeleteBlockedPeriod removes a block.
func (s *Store) DeleteBlockedPeriod(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM blocked_periods WHERE id = $1`, id)
	if err != nil && !notFound(err) {
		return fmt.Errorf("store: delete blocked period: %w", err)
	}
	if err != nil || tag.RowsAffected() == 0 {
		return fmt.Errorf("store: blocked period %s: %w", id, ErrNotFound)
	}
	return nil
}
