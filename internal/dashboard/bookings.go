package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/salon-dashboard/internal/scheduling"
	"github.com/wolfman30/salon-dashboard/internal/store"
)

// BookingRequest is a new appointment for an existing client and service.
type BookingRequest struct {
	ClientID  string            `json:"client_id"`
	ServiceID string            `json:"service_id"`
	Start     time.Time         `json:"start"`
	Status    scheduling.Status `json:"status"`
	Notes     string            `json:"notes"`
}

// BookAppointment creates an appointment if its slot is free. A taken slot
// returns a *ConflictError.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (scheduling.Appointment, error) {
	ctx, span := tracer.Start(ctx, "dashboard.book_appointment")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.client_id", req.ClientID),
		attribute.String("salon.service_id", req.ServiceID),
	)

	if req.ClientID == "" || req.ServiceID == "" || req.Start.IsZero() {
		return scheduling.Appointment{}, fmt.Errorf("%w: client_id, service_id and start are required", ErrInvalidRequest)
	}
	if req.Status == "" {
		req.Status = scheduling.StatusPending
	}
	if _, err := scheduling.ParseStatus(string(req.Status)); err != nil {
		return scheduling.Appointment{}, err
	}

	client, err := s.repo.GetClient(ctx, req.ClientID)
	if err != nil {
		span.RecordError(err)
		return scheduling.Appointment{}, err
	}
	svc, err := s.repo.GetService(ctx, req.ServiceID)
	if err != nil {
		span.RecordError(err)
		return scheduling.Appointment{}, err
	}
	if !svc.Active {
		return scheduling.Appointment{}, fmt.Errorf("%w: service %s is inactive", ErrInvalidRequest, svc.ID)
	}

	now := s.now()
	appt, err := scheduling.NewAppointment(s.newID(), client, svc, req.Start.In(s.settings.Location), req.Status, now)
	if err != nil {
		return scheduling.Appointment{}, err
	}
	appt.Notes = strings.TrimSpace(req.Notes)

	catalog, err := s.catalog(ctx)
	if err != nil {
		span.RecordError(err)
		return scheduling.Appointment{}, err
	}
	err = s.repo.CreateAppointment(ctx, appt, s.guard(appt, catalog))
	s.observeWrite("create", err)
	if err != nil {
		span.RecordError(err)
		return scheduling.Appointment{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"client_id", appt.ClientID,
		"service_id", appt.ServiceID,
		"start", appt.Start.Format(time.RFC3339),
		"status", appt.Status,
	)
	return appt, nil
}

// RescheduleAppointment moves an active appointment to newStart keeping its length.
func (s *Service) RescheduleAppointment(ctx context.Context, id string, newStart time.Time) (scheduling.Appointment, error) {
	ctx, span := tracer.Start(ctx, "dashboard.reschedule_appointment")
	defer span.End()
	span.SetAttributes(attribute.String("salon.appointment_id", id))

	if newStart.IsZero() {
		return scheduling.Appointment{}, fmt.Errorf("%w: start is required", ErrInvalidRequest)
	}
	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		span.RecordError(err)
		return scheduling.Appointment{}, err
	}
	moved, err := scheduling.Reschedule(current, newStart.In(s.settings.Location), s.now())
	if err != nil {
		return scheduling.Appointment{}, err
	}

	catalog, err := s.catalog(ctx)
	if err != nil {
		span.RecordError(err)
		return scheduling.Appointment{}, err
	}
	err = s.repo.RescheduleAppointment(ctx, moved, s.guard(moved, catalog))
	s.observeWrite("reschedule", err)
	if err != nil {
		span.RecordError(err)
		return scheduling.Appointment{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("appointment rescheduled",
		"appointment_id", moved.ID,
		"from", current.Start.Format(time.RFC3339),
		"to", moved.Start.Format(time.RFC3339),
	)
	return moved, nil
}

// UpdateStatus confirms, reopens or cancels an appointment.
func (s *Service) UpdateStatus(ctx context.Context, id string, to scheduling.Status) (scheduling.Appointment, error) {
	ctx, span := tracer.Start(ctx, "dashboard.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.appointment_id", id),
		attribute.String("salon.status", string(to)),
	)

	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		span.RecordError(err)
		return scheduling.Appointment{}, err
	}
	next, err := scheduling.Transition(current, to, s.now())
	if err != nil {
		return scheduling.Appointment{}, err
	}
	err = s.repo.UpdateAppointmentStatus(ctx, id, current.Status, next.Status, next.UpdatedAt)
	s.observeWrite("status", err)
	if err != nil {
		span.RecordError(err)
		return scheduling.Appointment{}, err
	}

	s.invalidate(ctx)
	s.logger.Info("appointment status changed", "appointment_id", id, "from", current.Status, "to", next.Status)
	return next, nil
}

// guard builds the check run inside the booking lock. The appointment being
// written is excluded so a reschedule never collides with itself.
func (s *Service) guard(a scheduling.Appointment, catalog scheduling.Catalog) store.ConflictCheck {
	candidate := scheduling.Interval{Start: a.Start, End: a.End}
	return func(nearby []scheduling.Appointment, blocks []scheduling.BlockedPeriod) error {
		verdict, err := scheduling.HasConflict(candidate, nearby, blocks, s.conflictOptions(a.ID, catalog))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		s.metrics.ObserveConflictCheck(string(verdict.Reason))
		if verdict.Conflicting {
			return &ConflictError{Verdict: verdict}
		}
		return nil
	}
}

func (s *Service) observeWrite(operation string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrConflict):
		outcome = "conflict"
	default:
		outcome = "error"
	}
	s.metrics.ObserveBooking(operation, outcome)
}

// BlockRequest blocks a whole day or, with Start and End, part of it.
type BlockRequest struct {
	Date   time.Time `json:"date"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
}

// BlockedPeriods lists blocks on dates in [from, to).
func (s *Service) BlockedPeriods(ctx context.Context, from, to time.Time) ([]scheduling.BlockedPeriod, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", ErrInvalidRequest)
	}
	return s.repo.ListBlockedPeriods(ctx, from, to)
}

// BlockPeriod stores a blocked date or time range. Existing appointments are
// left in place; the block only stops new bookings.
func (s *Service) BlockPeriod(ctx context.Context, req BlockRequest) (scheduling.BlockedPeriod, error) {
	ctx, span := tracer.Start(ctx, "dashboard.block_period")
	defer span.End()

	if req.Date.IsZero() {
		return scheduling.BlockedPeriod{}, fmt.Errorf("%w: date is required", ErrInvalidRequest)
	}
	day := scheduling.StartOfDay(req.Date.In(s.settings.Location))
	block := scheduling.BlockedPeriod{
		ID:     s.newID(),
		Date:   day,
		AllDay: true,
		Reason: strings.TrimSpace(req.Reason),
	}
	if !req.Start.IsZero() || !req.End.IsZero() {
		window := scheduling.Interval{Start: req.Start.In(s.settings.Location), End: req.End.In(s.settings.Location)}
		if err := window.Validate(); err != nil {
			return scheduling.BlockedPeriod{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		if !scheduling.SameDate(window.Start, day) || !scheduling.SameDate(window.End.Add(-time.Nanosecond), day) {
			return scheduling.BlockedPeriod{}, fmt.Errorf("%w: partial block must fall on %s", ErrInvalidRequest, day.Format(time.DateOnly))
		}
		block.AllDay = false
		block.Start = window.Start
		block.End = window.End
	}

	if err := s.repo.CreateBlockedPeriod(ctx, block); err != nil {
		span.RecordError(err)
		return scheduling.BlockedPeriod{}, err
	}
	s.invalidate(ctx)
	s.logger.Info("period blocked", "block_id", block.ID, "date", day.Format(time.DateOnly), "all_day", block.AllDay)
	return block, nil
}

// UnblockPeriod deletes a block.
func (s *Service) UnblockPeriod(ctx context.Context, id string) error {
	if err := s.repo.DeleteBlockedPeriod(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}
