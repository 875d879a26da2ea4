package scheduling

import (
	"fmt"
	"time"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusPending, StatusCanceled},
}

// CanTransition reports whether an appointment may move from one status to another.
// Canceled is terminal.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NewAppointment books client for svc at start, snapshotting the service's
// duration and price. Only pending and confirmed are valid initial statuses.
func NewAppointment(id string, client Client, svc Service, start time.Time, status Status, now time.Time) (Appointment, error) {
	if status != StatusPending && status != StatusConfirmed {
		return Appointment{}, fmt.Errorf("%w: cannot create appointment as %q", ErrInvalidTransition, status)
	}
	duration := svc.Duration()
	if duration <= 0 {
		duration = DefaultDuration
	}
	return Appointment{
		ID:          id,
		ClientID:    client.ID,
		ClientName:  client.Name,
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Start:       start,
		End:         start.Add(duration),
		Price:       svc.Price,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Reschedule moves a to newStart keeping its booked length.
func Reschedule(a Appointment, newStart time.Time, now time.Time) (Appointment, error) {
	if !a.Active() {
		return Appointment{}, fmt.Errorf("%w: appointment %s is canceled", ErrInvalidTransition, a.ID)
	}
	length := a.End.Sub(a.Start)
	if length <= 0 {
		length = DefaultDuration
	}
	a.Start = newStart
	a.End = newStart.Add(length)
	a.UpdatedAt = now
	return a, nil
}

// Transition moves a to status to.
func Transition(a Appointment, to Status, now time.Time) (Appointment, error) {
	if !CanTransition(a.Status, to) {
		return Appointment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	a.UpdatedAt = now
	return a, nil
}
