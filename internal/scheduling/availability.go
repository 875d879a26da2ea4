package scheduling

import (
	"iter"
	"time"
)

// Slot is a free start time and the interval a booking there would occupy.
type Slot struct {
	Date  time.Time `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityQuery selects the days and booking length to search.
type AvailabilityQuery struct {
	From      time.Time
	DaysAhead int
	Hours     BusinessHours
	// Duration of the booking being placed. Zero means DefaultDuration.
	Duration time.Duration
	// NotBefore drops slots that start earlier, typically "now".
	NotBefore time.Time
	// FitWithinHours drops slots whose booking would run past closing.
	FitWithinHours bool
	// FallbackDuration is passed through to HasConflict.
	FallbackDuration time.Duration
}

// AvailableSlots lazily yields the free grid points over
// [From, From+DaysAhead) in chronological order. Whole-day blocked dates
// yield nothing. Each call starts over; nothing is shared between calls.
func AvailableSlots(q AvailabilityQuery, appointments []Appointment, blocks []BlockedPeriod, catalog Catalog) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		if q.DaysAhead <= 0 || q.Hours.Validate() != nil {
			return
		}
		duration := q.Duration
		if duration <= 0 {
			duration = DefaultDuration
		}
		opts := ConflictOptions{Catalog: catalog, FallbackDuration: q.FallbackDuration}

		first := StartOfDay(q.From)
		for i := 0; i < q.DaysAhead; i++ {
			day := AddDays(first, i)
			if DayBlocked(day, blocks) {
				continue
			}
			window := q.Hours.Window(day)
			reach := Interval{Start: window.Start, End: window.End.Add(duration)}
			nearby := appointmentsWithin(reach, appointments, opts)

			for _, start := range GenerateSlots(day, q.Hours) {
				if !q.NotBefore.IsZero() && start.Before(q.NotBefore) {
					continue
				}
				candidate := Interval{Start: start, End: start.Add(duration)}
				if q.FitWithinHours && candidate.End.After(window.End) {
					continue
				}
				verdict, err := HasConflict(candidate, nearby, blocks, opts)
				if err != nil || verdict.Conflicting {
					continue
				}
				if !yield(Slot{Date: day, Start: candidate.Start, End: candidate.End}) {
					return
				}
			}
		}
	}
}

// NextAvailable collects at most n slots from seq.
func NextAvailable(seq iter.Seq[Slot], n int) []Slot {
	if n <= 0 {
		return nil
	}
	out := make([]Slot, 0, n)
	for slot := range seq {
		out = append(out, slot)
		if len(out) == n {
			break
		}
	}
	return out
}

// appointmentsWithin keeps, in order, the active appointments that can
// overlap anything inside reach.
func appointmentsWithin(reach Interval, appointments []Appointment, opts ConflictOptions) []Appointment {
	var out []Appointment
	for _, a := range appointments {
		if !a.Active() {
			continue
		}
		if Overlaps(reach, Span(a, opts.Catalog, opts.FallbackDuration)) {
			out = append(out, a)
		}
	}
	return out
}
