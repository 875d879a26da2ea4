// Package scheduling holds the booking calendar rules for a single-provider
// salon: the slot grid, conflict detection, availability, occupancy and
// revenue figures. Every function works on snapshots passed in by the caller
// and performs no I/O.
package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInterval is returned when an interval does not end after it starts.
	ErrInvalidInterval = errors.New("scheduling: interval end must be after start")
	// ErrInvalidBusinessHours is returned for an empty or inverted business day.
	ErrInvalidBusinessHours = errors.New("scheduling: invalid business hours")
	// ErrInvalidTransition is returned when an appointment cannot move to the requested status.
	ErrInvalidTransition = errors.New("scheduling: invalid status transition")
	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("scheduling: invalid status")
	// ErrUnknownService is returned when a service ID is not in the catalog.
	ErrUnknownService = errors.New("scheduling: unknown service")
)

// DefaultDuration is used when neither the appointment nor its service knows how long it takes.
const DefaultDuration = 60 * time.Minute

// Status tracks the lifecycle of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusConfirmed, StatusCanceled:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Service is a bookable treatment with a fixed duration.
type Service struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
	Active          bool            `json:"active"`
}

// Duration returns the service length, or zero when unset.
func (s Service) Duration() time.Duration {
	if s.DurationMinutes <= 0 {
		return 0
	}
	return time.Duration(s.DurationMinutes) * time.Minute
}

// Client is a customer of the salon.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Appointment is a booking. ClientName and ServiceName are display snapshots
// taken when the appointment was loaded or created.
type Appointment struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id"`
	ClientName  string          `json:"client_name,omitempty"`
	ServiceID   string          `json:"service_id"`
	ServiceName string          `json:"service_name,omitempty"`
	Start       time.Time       `json:"start"`
	End         time.Time       `json:"end"`
	Price       decimal.Decimal `json:"price"`
	Status      Status          `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Active reports whether the appointment still holds its time.
func (a Appointment) Active() bool {
	return a.Status != StatusCanceled
}

// BlockedPeriod marks a date, or part of it, as unavailable.
// A partial block carries Start and End on the same date.
type BlockedPeriod struct {
	ID     string    `json:"id"`
	Date   time.Time `json:"date"`
	AllDay bool      `json:"all_day"`
	Start  time.Time `json:"start,omitzero"`
	End    time.Time `json:"end,omitzero"`
	Reason string    `json:"reason,omitempty"`
}

// Partial returns the blocked interval for a well-formed partial block.
// All-day blocks and blocks with missing or inverted times return false and
// must be treated as covering the whole day.
func (b BlockedPeriod) Partial() (Interval, bool) {
	if b.AllDay || b.Start.IsZero() || b.End.IsZero() || !b.End.After(b.Start) {
		return Interval{}, false
	}
	return Interval{Start: b.Start, End: b.End}, true
}

// On reports whether the block belongs to the calendar day of t.
func (b BlockedPeriod) On(t time.Time) bool {
	return SameDate(b.Date, t)
}

// Expense is money spent running the business.
type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	IncurredOn  time.Time       `json:"incurred_on"`
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate fails when the interval does not end after it starts.
func (i Interval) Validate() error {
	if !i.End.After(i.Start) {
		return fmt.Errorf("%w: %s - %s", ErrInvalidInterval, i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
	}
	return nil
}

// Duration is End minus Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Contains reports whether t falls within [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}
