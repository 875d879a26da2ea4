package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

var salonTZ = time.FixedZone("BRT", -3*60*60)

var appointmentCols = []string{
	"id", "client_id", "client_name", "service_id", "service_name",
	"start_at", "end_at", "price", "status", "notes", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWithDB(mock, salonTZ), mock
}

func TestListServices(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id::text, name, price::text, duration_minutes, active FROM services ORDER BY name`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "price", "duration_minutes", "active"}).
			AddRow("svc-1", "Corte", "50.00", 45, true).
			AddRow("svc-2", "Coloração", "150.50", 90, true))

	services, err := s.ListServices(context.Background())

	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "Corte", services[0].Name)
	assert.True(t, decimal.RequireFromString("150.5").Equal(services[1].Price))
	assert.Equal(t, 90, services[1].DurationMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetServiceNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM services WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetService(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppointmentsConvertsToLocation(t *testing.T) {
	s, mock := newMockStore(t)
	from := time.Date(2024, 3, 12, 0, 0, 0, 0, salonTZ)
	to := from.AddDate(0, 0, 1)
	start := time.Date(2024, 3, 12, 13, 0, 0, 0, time.UTC)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM appointments a\s+JOIN clients c ON c.id = a.client_id\s+JOIN services s ON s.id = a.service_id\s+WHERE a.start_at < \$2 AND a.end_at > \$1`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows(appointmentCols).
			AddRow("a1", "c1", "Ana", "svc-1", "Corte", start, start.Add(time.Hour), "80.00", "confirmed", "", created, created))

	list, err := s.ListAppointments(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, list, 1)
	a := list[0]
	assert.Equal(t, 10, a.Start.Hour())
	assert.Equal(t, salonTZ, a.Start.Location())
	assert.Equal(t, scheduling.StatusConfirmed, a.Status)
	assert.Equal(t, "Ana", a.ClientName)
	assert.Equal(t, "80", a.Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppointmentNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE a.id = \$1`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows(appointmentCols))

	_, err := s.GetAppointment(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	badUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	at := time.Date(2024, 3, 2, 9, 0, 0, 0, salonTZ)
	ctx := context.Background()
	s, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE a.id = \$1`).WithArgs("abc").WillReturnError(badUUID)
	mock.ExpectQuery(`FROM clients WHERE id = \$1`).WithArgs("abc").WillReturnError(badUUID)
	mock.ExpectQuery(`FROM services WHERE id = \$1`).WithArgs("abc").WillReturnError(badUUID)
	mock.ExpectExec(`UPDATE appointments SET status`).WithArgs("confirmed", at, "abc", "pending").WillReturnError(badUUID)
	mock.ExpectExec(`DELETE FROM blocked_periods`).WithArgs("abc").WillReturnError(badUUID)

	_, err := s.GetAppointment(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetClient(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetService(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateAppointmentStatus(ctx, "abc", scheduling.StatusPending, scheduling.StatusConfirmed, at), ErrNotFound)
	assert.ErrorIs(t, s.DeleteBlockedPeriod(ctx, "abc"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOtherPgErrorsAreNotNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM blocked_periods`).
		WithArgs("b1").
		WillReturnError(&pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"})

	err := s.DeleteBlockedPeriod(context.Background(), "b1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "store: delete blocked period")
}

func testAppointment() scheduling.Appointment {
	start := time.Date(2024, 3, 12, 10, 0, 0, 0, salonTZ)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, salonTZ)
	return scheduling.Appointment{
		ID:        "a-new",
		ClientID:  "c1",
		ServiceID: "svc-1",
		Start:     start,
		End:       start.Add(time.Hour),
		Price:     decimal.RequireFromString("80.00"),
		Status:    scheduling.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAppointmentRunsCheckUnderLock(t *testing.T) {
	s, mock := newMockStore(t)
	a := testAppointment()
	dayStart := time.Date(2024, 3, 12, 0, 0, 0, 0, salonTZ)
	existingStart := time.Date(2024, 3, 12, 15, 0, 0, 0, salonTZ)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(bookingLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`FROM appointments a`).
		WithArgs(dayStart, dayStart.AddDate(0, 0, 1)).
		WillReturnRows(pgxmock.NewRows(appointmentCols).
			AddRow("a1", "c2", "Bia", "svc-1", "Corte", existingStart, existingStart.Add(time.Hour), "50", "confirmed", "", a.CreatedAt, a.CreatedAt))
	mock.ExpectQuery(`FROM blocked_periods`).
		WithArgs("2024-03-12", "2024-03-13").
		WillReturnRows(pgxmock.NewRows([]string{"id", "block_date", "all_day", "start_at", "end_at", "reason"}))
	mock.ExpectExec(`INSERT INTO appointments`).
		WithArgs(a.ID, a.ClientID, a.ServiceID, a.Start, a.End, "80", "pending", "", a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	var seen int
	err := s.CreateAppointment(context.Background(), a, func(nearby []scheduling.Appointment, blocks []scheduling.BlockedPeriod) error {
		seen = len(nearby)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, seen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentRejectedByCheckRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	a := testAppointment()
	errBusy := errors.New("busy")

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(bookingLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`FROM appointments a`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(appointmentCols))
	mock.ExpectQuery(`FROM blocked_periods`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "block_date", "all_day", "start_at", "end_at", "reason"}))
	mock.ExpectRollback()

	err := s.CreateAppointment(context.Background(), a, func([]scheduling.Appointment, []scheduling.BlockedPeriod) error {
		return errBusy
	})

	assert.ErrorIs(t, err, errBusy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRescheduleAppointmentMissing(t *testing.T) {
	s, mock := newMockStore(t)
	a := testAppointment()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(bookingLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`UPDATE appointments SET start_at = \$1, end_at = \$2, updated_at = \$3`).
		WithArgs(a.Start, a.End, a.UpdatedAt, a.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := s.RescheduleAppointment(context.Background(), a, nil)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAppointmentStatus(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2024, 3, 2, 9, 0, 0, 0, salonTZ)

	mock.ExpectExec(`UPDATE appointments SET status = \$1, updated_at = \$2\s+WHERE id = \$3 AND status = \$4`).
		WithArgs("confirmed", at, "a1", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE appointments SET status`).
		WithArgs("canceled", at, "a1", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, s.UpdateAppointmentStatus(context.Background(), "a1", scheduling.StatusPending, scheduling.StatusConfirmed, at))
	err := s.UpdateAppointmentStatus(context.Background(), "a1", scheduling.StatusPending, scheduling.StatusCanceled, at)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBlockedPeriods(t *testing.T) {
	s, mock := newMockStore(t)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, salonTZ)
	to := from.AddDate(0, 1, 0)
	lunchStart := time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)
	lunchEnd := lunchStart.Add(time.Hour)

	mock.ExpectQuery(`FROM blocked_periods\s+WHERE block_date >= \$1::date AND block_date < \$2::date`).
		WithArgs("2024-03-01", "2024-04-01").
		WillReturnRows(pgxmock.NewRows([]string{"id", "block_date", "all_day", "start_at", "end_at", "reason"}).
			AddRow("b1", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), true, nil, nil, "Feriado").
			AddRow("b2", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), false, &lunchStart, &lunchEnd, "almoço"))

	blocks, err := s.ListBlockedPeriods(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, salonTZ), blocks[0].Date)
	assert.True(t, blocks[0].Start.IsZero())
	span, ok := blocks[1].Partial()
	require.True(t, ok)
	assert.Equal(t, 12, span.Start.Hour())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAndDeleteBlockedPeriod(t *testing.T) {
	s, mock := newMockStore(t)
	b := scheduling.BlockedPeriod{ID: "b1", Date: time.Date(2024, 3, 10, 0, 0, 0, 0, salonTZ), AllDay: true, Reason: "Feriado"}

	mock.ExpectExec(`INSERT INTO blocked_periods`).
		WithArgs("b1", "2024-03-10", true, (*time.Time)(nil), (*time.Time)(nil), "Feriado").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM blocked_periods WHERE id = \$1`).
		WithArgs("b1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM blocked_periods`).
		WithArgs("b1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.CreateBlockedPeriod(context.Background(), b))
	require.NoError(t, s.DeleteBlockedPeriod(context.Background(), "b1"))
	assert.ErrorIs(t, s.DeleteBlockedPeriod(context.Background(), "b1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListClients(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id::text, name, phone, created_at FROM clients ORDER BY name`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone", "created_at"}).
			AddRow("c1", "Ana", "+5511999990000", created))

	clients, err := s.ListClients(context.Background())

	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, salonTZ, clients[0].CreatedAt.Location())
	assert.NoError(t, mock.ExpectationsWereMet())
}
