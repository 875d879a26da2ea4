package scheduling

import (
	"fmt"
	"time"
)

// ConflictReason classifies why a candidate cannot be booked.
type ConflictReason string

const (
	ReasonNone        ConflictReason = ""
	ReasonDateBlocked ConflictReason = "date_blocked"
	ReasonTimeBlocked ConflictReason = "time_blocked"
	ReasonAppointment ConflictReason = "appointment"
)

// Conflict is the verdict of HasConflict.
type Conflict struct {
	Conflicting bool           `json:"conflict"`
	Reason      ConflictReason `json:"reason,omitempty"`
	Detail      string         `json:"detail,omitempty"`
	Appointment *Appointment   `json:"appointment,omitempty"`
	Block       *BlockedPeriod `json:"blocked_period,omitempty"`
}

// ConflictOptions tunes HasConflict.
type ConflictOptions struct {
	// ExcludeID skips the appointment being edited in place.
	ExcludeID string
	// Catalog supplies durations for appointments without an end.
	Catalog Catalog
	// FallbackDuration applies when neither end nor service duration is known.
	// Zero means DefaultDuration.
	FallbackDuration time.Duration
}

// HasConflict decides whether candidate can be booked against the existing
// appointments and blocked periods. Whole-day blocks are checked first, then
// partial blocks, then non-canceled appointments in input order; the first hit
// is returned.
func HasConflict(candidate Interval, appointments []Appointment, blocks []BlockedPeriod, opts ConflictOptions) (Conflict, error) {
	if err := candidate.Validate(); err != nil {
		return Conflict{}, err
	}

	for i := range blocks {
		b := blocks[i]
		if !touchesDay(candidate, b.Date) {
			continue
		}
		if _, partial := b.Partial(); !partial {
			return Conflict{
				Conflicting: true,
				Reason:      ReasonDateBlocked,
				Detail:      blockedDateDetail(b),
				Block:       &b,
			}, nil
		}
	}

	for i := range blocks {
		b := blocks[i]
		span, partial := b.Partial()
		if !partial || !Overlaps(candidate, span) {
			continue
		}
		return Conflict{
			Conflicting: true,
			Reason:      ReasonTimeBlocked,
			Detail:      fmt.Sprintf("time blocked %s-%s%s", span.Start.Format("15:04"), span.End.Format("15:04"), reasonSuffix(b.Reason)),
			Block:       &b,
		}, nil
	}

	for i := range appointments {
		a := appointments[i]
		if !a.Active() || (opts.ExcludeID != "" && a.ID == opts.ExcludeID) {
			continue
		}
		span := Span(a, opts.Catalog, opts.FallbackDuration)
		if !Overlaps(candidate, span) {
			continue
		}
		return Conflict{
			Conflicting: true,
			Reason:      ReasonAppointment,
			Detail:      appointmentDetail(a, span, opts.Catalog),
			Appointment: &a,
		}, nil
	}

	return Conflict{}, nil
}

// DayBlocked reports whether a whole-day block exists for day.
func DayBlocked(day time.Time, blocks []BlockedPeriod) bool {
	for _, b := range blocks {
		if _, partial := b.Partial(); !partial && b.On(day) {
			return true
		}
	}
	return false
}

// touchesDay reports whether the candidate covers any part of date's calendar day.
func touchesDay(candidate Interval, date time.Time) bool {
	if SameDate(candidate.Start, date) {
		return true
	}
	last := candidate.End.Add(-time.Nanosecond)
	for d := AddDays(StartOfDay(candidate.Start), 1); !d.After(last); d = AddDays(d, 1) {
		if SameDate(d, date) {
			return true
		}
	}
	return false
}

func blockedDateDetail(b BlockedPeriod) string {
	return "date " + b.Date.Format(time.DateOnly) + " is blocked" + reasonSuffix(b.Reason)
}

func reasonSuffix(reason string) string {
	if reason == "" {
		return ""
	}
	return ": " + reason
}

func appointmentDetail(a Appointment, span Interval, catalog Catalog) string {
	who := a.ClientName
	if who == "" {
		who = a.ClientID
	}
	if who == "" {
		who = "another client"
	}
	window := span.Start.Format("15:04") + "-" + span.End.Format("15:04")
	if service := catalog.ServiceName(a); service != "" {
		return fmt.Sprintf("conflicts with %s (%s) %s", who, service, window)
	}
	return fmt.Sprintf("conflicts with %s %s", who, window)
}
