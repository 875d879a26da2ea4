package scheduling

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasConflictOverlappingAppointment(t *testing.T) {
	existing := appt(t, "a1", "2024-03-12 10:30", "2024-03-12 11:30", StatusConfirmed, 80)
	existing.ClientName = "Ana Souza"
	existing.ServiceName = "Corte"

	verdict, err := HasConflict(span(t, "2024-03-12 10:00", "2024-03-12 11:00"), []Appointment{existing}, nil, ConflictOptions{})

	require.NoError(t, err)
	assert.True(t, verdict.Conflicting)
	assert.Equal(t, ReasonAppointment, verdict.Reason)
	require.NotNil(t, verdict.Appointment)
	assert.Equal(t, "a1", verdict.Appointment.ID)
	assert.Contains(t, verdict.Detail, "Ana Souza")
	assert.Contains(t, verdict.Detail, "Corte")
	assert.Contains(t, verdict.Detail, "10:30-11:30")
}

func TestHasConflictExcludesSelf(t *testing.T) {
	x := appt(t, "x", "2024-03-12 10:00", "2024-03-12 11:00", StatusConfirmed, 80)

	verdict, err := HasConflict(Interval{Start: x.Start, End: x.End}, []Appointment{x}, nil, ConflictOptions{ExcludeID: "x"})

	require.NoError(t, err)
	assert.False(t, verdict.Conflicting)
}

func TestHasConflictIdenticalStartAlwaysConflicts(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusConfirmed} {
		existing := appt(t, "a1", "2024-03-12 10:00", "2024-03-12 10:15", status, 30)
		verdict, err := HasConflict(span(t, "2024-03-12 10:00", "2024-03-12 13:00"), []Appointment{existing}, nil, ConflictOptions{})
		require.NoError(t, err)
		assert.True(t, verdict.Conflicting, status)
	}
}

func TestHasConflictIgnoresCanceled(t *testing.T) {
	canceled := appt(t, "a1", "2024-03-12 10:00", "2024-03-12 11:00", StatusCanceled, 80)

	verdict, err := HasConflict(span(t, "2024-03-12 10:00", "2024-03-12 11:00"), []Appointment{canceled}, nil, ConflictOptions{})

	require.NoError(t, err)
	assert.False(t, verdict.Conflicting)
}

func TestHasConflictBackToBackIsFree(t *testing.T) {
	existing := appt(t, "a1", "2024-03-12 10:00", "2024-03-12 11:00", StatusConfirmed, 80)

	verdict, err := HasConflict(span(t, "2024-03-12 11:00", "2024-03-12 12:00"), []Appointment{existing}, nil, ConflictOptions{})

	require.NoError(t, err)
	assert.False(t, verdict.Conflicting)
}

func TestHasConflictAllDayBlockShortCircuits(t *testing.T) {
	existing := appt(t, "a1", "2024-03-12 10:00", "2024-03-12 11:00", StatusConfirmed, 80)
	blocks := []BlockedPeriod{{ID: "b1", Date: day(t, "2024-03-12"), AllDay: true, Reason: "Feriado"}}

	verdict, err := HasConflict(span(t, "2024-03-12 10:00", "2024-03-12 11:00"), []Appointment{existing}, blocks, ConflictOptions{})

	require.NoError(t, err)
	assert.True(t, verdict.Conflicting)
	assert.Equal(t, ReasonDateBlocked, verdict.Reason)
	assert.Nil(t, verdict.Appointment)
	require.NotNil(t, verdict.Block)
	assert.Equal(t, "b1", verdict.Block.ID)
	assert.Equal(t, "date 2024-03-12 is blocked: Feriado", verdict.Detail)
}

func TestHasConflictInconsistentBlockCountsAsAllDay(t *testing.T) {
	blocks := []BlockedPeriod{
		{ID: "no-times", Date: day(t, "2024-03-12")},
		{ID: "inverted", Date: day(t, "2024-03-13"), Start: at(t, "2024-03-13 12:00"), End: at(t, "2024-03-13 11:00")},
	}

	for _, d := range []string{"2024-03-12", "2024-03-13"} {
		verdict, err := HasConflict(span(t, d+" 15:00", d+" 16:00"), nil, blocks, ConflictOptions{})
		require.NoError(t, err)
		assert.Equal(t, ReasonDateBlocked, verdict.Reason, d)
	}
}

func TestHasConflictBlockOnOtherDayIgnored(t *testing.T) {
	blocks := []BlockedPeriod{{Date: day(t, "2024-03-13"), AllDay: true}}

	verdict, err := HasConflict(span(t, "2024-03-12 10:00", "2024-03-12 11:00"), nil, blocks, ConflictOptions{})

	require.NoError(t, err)
	assert.False(t, verdict.Conflicting)
}

func TestHasConflictPartialBlock(t *testing.T) {
	blocks := []BlockedPeriod{{
		ID:     "lunch",
		Date:   day(t, "2024-03-12"),
		Start:  at(t, "2024-03-12 12:00"),
		End:    at(t, "2024-03-12 13:00"),
		Reason: "almoço",
	}}

	verdict, err := HasConflict(span(t, "2024-03-12 11:30", "2024-03-12 12:30"), nil, blocks, ConflictOptions{})
	require.NoError(t, err)
	assert.Equal(t, ReasonTimeBlocked, verdict.Reason)
	assert.Equal(t, "time blocked 12:00-13:00: almoço", verdict.Detail)

	verdict, err = HasConflict(span(t, "2024-03-12 13:00", "2024-03-12 14:00"), nil, blocks, ConflictOptions{})
	require.NoError(t, err)
	assert.False(t, verdict.Conflicting)
}

func TestHasConflictEffectiveEndFallbacks(t *testing.T) {
	catalog := NewCatalog([]Service{{ID: "color", Name: "Coloração", DurationMinutes: 90, Price: decimal.NewFromInt(150)}})
	withService := appt(t, "a1", "2024-03-12 10:00", "", StatusConfirmed, 150)
	withService.ServiceID = "color"
	unknown := appt(t, "a2", "2024-03-12 14:00", "", StatusConfirmed, 50)
	unknown.ServiceID = "gone"
	existing := []Appointment{withService, unknown}
	opts := ConflictOptions{Catalog: catalog}

	verdict, err := HasConflict(span(t, "2024-03-12 11:00", "2024-03-12 11:30"), existing, nil, opts)
	require.NoError(t, err)
	assert.True(t, verdict.Conflicting, "service duration extends the appointment to 11:30")
	assert.Contains(t, verdict.Detail, "Coloração")

	verdict, err = HasConflict(span(t, "2024-03-12 15:00", "2024-03-12 15:30"), existing, nil, opts)
	require.NoError(t, err)
	assert.False(t, verdict.Conflicting, "unknown service falls back to 60 minutes")

	verdict, err = HasConflict(span(t, "2024-03-12 14:30", "2024-03-12 15:30"), existing, nil, opts)
	require.NoError(t, err)
	assert.True(t, verdict.Conflicting)
}

func TestHasConflictReturnsFirstInInputOrder(t *testing.T) {
	existing := []Appointment{
		appt(t, "second", "2024-03-12 10:30", "2024-03-12 11:30", StatusConfirmed, 40),
		appt(t, "first", "2024-03-12 10:00", "2024-03-12 11:00", StatusConfirmed, 40),
	}

	verdict, err := HasConflict(span(t, "2024-03-12 10:00", "2024-03-12 11:00"), existing, nil, ConflictOptions{})

	require.NoError(t, err)
	require.NotNil(t, verdict.Appointment)
	assert.Equal(t, "second", verdict.Appointment.ID)
}

func TestHasConflictRejectsInvalidCandidate(t *testing.T) {
	start := at(t, "2024-03-12 10:00")
	existing := []Appointment{appt(t, "a1", "2024-03-12 10:00", "2024-03-12 11:00", StatusConfirmed, 40)}

	_, err := HasConflict(Interval{Start: start, End: start}, existing, nil, ConflictOptions{})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = HasConflict(Interval{Start: start, End: start.Add(-time.Minute)}, existing, nil, ConflictOptions{})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestHasConflictDetailFallsBackToClientID(t *testing.T) {
	existing := appt(t, "a1", "2024-03-12 10:00", "2024-03-12 11:00", StatusConfirmed, 40)

	verdict, err := HasConflict(span(t, "2024-03-12 10:30", "2024-03-12 11:00"), []Appointment{existing}, nil, ConflictOptions{})

	require.NoError(t, err)
	assert.Equal(t, "conflicts with client-a1 10:00-11:00", verdict.Detail)
}
