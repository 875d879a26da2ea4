package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

// ConflictCheck inspects the calendar around a pending write and returns an
// error to abort it. nearby holds the appointments overlapping the write's
// calendar days; blocks holds those days' blocked periods.
type ConflictCheck func(nearby []scheduling.Appointment, blocks []scheduling.BlockedPeriod) error

const appointmentSelect = `
		SELECT a.id::text, a.client_id::text, c.name, a.service_id::text, s.name,
		       a.start_at, a.end_at, a.price::text, a.status, a.notes, a.created_at, a.updated_at
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN services s ON s.id = a.service_id`

// ListAppointments returns appointments overlapping [from, to), canceled
// included, in start order.
func (s *Store) ListAppointments(ctx context.Context, from, to time.Time) ([]scheduling.Appointment, error) {
	rows, err := s.db.Query(ctx, appointmentSelect+`
		WHERE a.start_at < $2 AND a.end_at > $1
		ORDER BY a.start_at ASC, a.created_at ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	defer rows.Close()
	return s.scanAppointments(rows)
}

// ListAllAppointments returns every appointment in start order.
func (s *Store) ListAllAppointments(ctx context.Context) ([]scheduling.Appointment, error) {
	rows, err := s.db.Query(ctx, appointmentSelect+`
		ORDER BY a.start_at ASC, a.created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list all appointments: %w", err)
	}
	defer rows.Close()
	return s.scanAppointments(rows)
}

// GetAppointment loads one appointment.
func (s *Store) GetAppointment(ctx context.Context, id string) (scheduling.Appointment, error) {
	list, err := s.queryAppointments(ctx, appointmentSelect+`
		WHERE a.id = $1`, id)
	if notFound(err) || (err == nil && len(list) == 0) {
		return scheduling.Appointment{}, fmt.Errorf("store: appointment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return scheduling.Appointment{}, fmt.Errorf("store: get appointment: %w", err)
	}
	return list[0], nil
}

func (s *Store) queryAppointments(ctx context.Context, sql string, args ...any) ([]scheduling.Appointment, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanAppointments(rows)
}

// CreateAppointment inserts a after check approves the surrounding calendar.
// The check and insert run under the booking lock.
func (s *Store) CreateAppointment(ctx context.Context, a scheduling.Appointment, check ConflictCheck) error {
	return s.inBookingLock(ctx, func(tx *Store) error {
		if err := tx.runCheck(ctx, a, check); err != nil {
			return err
		}
		_, err := tx.db.Exec(ctx, `
			INSERT INTO appointments (id, client_id, service_id, start_at, end_at, price, status, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10)`,
			a.ID, a.ClientID, a.ServiceID, a.Start, a.End, a.Price.String(), string(a.Status), a.Notes, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("store: create appointment: %w", err)
		}
		return nil
	})
}

// RescheduleAppointment writes a's new start and end after check approves.
func (s *Store) RescheduleAppointment(ctx context.Context, a scheduling.Appointment, check ConflictCheck) error {
	return s.inBookingLock(ctx, func(tx *Store) error {
		if err := tx.runCheck(ctx, a, check); err != nil {
			return err
		}
		tag, err := tx.db.Exec(ctx, `
			UPDATE appointments SET start_at = $1, end_at = $2, updated_at = $3
			WHERE id = $4 AND status <> 'canceled'`,
			a.Start, a.End, a.UpdatedAt, a.ID,
		)
		if err != nil && !notFound(err) {
			return fmt.Errorf("store: reschedule appointment: %w", err)
		}
		if err != nil || tag.RowsAffected() == 0 {
			return fmt.Errorf("store: reschedule appointment %s: %w", a.ID, ErrNotFound)
		}
		return nil
	})
}

// UpdateAppointmentStatus moves an appointment from one status to another.
// The update only applies while the row still has status from.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, from, to scheduling.Status, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		string(to), at, id, string(from),
	)
	if err != nil && !notFound(err) {
		return fmt.Errorf("store: update appointment status: %w", err)
	}
	if err != nil || tag.RowsAffected() == 0 {
		return fmt.Errorf("store: appointment %s with status %s: %w", id, from, ErrNotFound)
	}
	return nil
}

func (s *Store) runCheck(ctx context.Context, a scheduling.Appointment, check ConflictCheck) error {
	if check == nil {
		return nil
	}
	from := scheduling.StartOfDay(a.Start.In(s.loc))
	to := scheduling.AddDays(scheduling.StartOfDay(a.End.In(s.loc)), 1)

	nearby, err := s.ListAppointments(ctx, from, to)
	if err != nil {
		return err
	}
	blocks, err := s.ListBlockedPeriods(ctx, from, to)
	if err != nil {
		return err
	}
	return check(nearby, blocks)
}

func (s *Store) scanAppointments(rows pgx.Rows) ([]scheduling.Appointment, error) {
	var out []scheduling.Appointment
	for rows.Next() {
		var a scheduling.Appointment
		var price, status string
		err := rows.Scan(
			&a.ID, &a.ClientID, &a.ClientName, &a.ServiceID, &a.ServiceName,
			&a.Start, &a.End, &price, &status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("store: scan appointment: %w", err)
		}
		if a.Price, err = parseMoney(price); err != nil {
			return nil, err
		}
		a.Status = scheduling.Status(status)
		a.Start = a.Start.In(s.loc)
		a.End = a.End.In(s.loc)
		a.CreatedAt = a.CreatedAt.In(s.loc)
		a.UpdatedAt = a.UpdatedAt.In(s.loc)
		out = append(out, a)
	}
	return out, rows.Err()
}
