// Package store persists the salon calendar in Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("store: not found")

// bookingLockKey serializes appointment writes so a conflict check and the
// write that follows it see the same calendar.
const bookingLockKey int64 = 0x5a10_0b00

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store provides CRUD operations for services, clients, appointments and
// blocked periods. Times are returned in loc.
type Store struct {
	db  DB
	loc *time.Location
}

// New creates a store backed by a pgx pool.
func New(pool *pgxpool.Pool, loc *time.Location) *Store {
	if pool == nil {
		panic("store: pgx pool required")
	}
	return NewWithDB(pool, loc)
}

// NewWithDB allows injecting a mock database for testing.
func NewWithDB(db DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: db, loc: loc}
}

// Location returns the wall-clock location used for dates.
func (s *Store) Location() *time.Location {
	return s.loc
}

// inBookingLock runs fn inside a transaction holding the booking advisory
// lock. Without transaction support fn runs directly against the store.
func (s *Store) inBookingLock(ctx context.Context, fn func(*Store) error) error {
	beginner, ok := s.db.(txBeginner)
	if !ok {
		return fn(s)
	}
	tx, err := beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bookingLockKey); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("store: booking lock: %w", err)
	}
	if err := fn(&Store{db: tx, loc: s.loc}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// dateIn rebuilds a DATE column value as local midnight.
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func parseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("store: parse amount %q: %w", raw, err)
	}
	return d, nil
}

// invalidTextRepresentation is raised when an id is not a valid UUID.
const invalidTextRepresentation = "22P02"

// notFound reports a missing row. A malformed id cannot match any row, so it
// counts as missing too.
func notFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}
