package scheduling

import (
	"math"
	"time"
)

// Occupancy summarizes how much of a business day is taken.
type Occupancy struct {
	Date             time.Time `json:"date"`
	Percentage       int       `json:"percentage"`
	FullyBlocked     bool      `json:"fully_blocked"`
	AppointmentCount int       `json:"appointment_count"`
	BlockCount       int       `json:"block_count"`
	OccupiedMinutes  int       `json:"occupied_minutes"`
	TotalMinutes     int       `json:"total_minutes"`
}

// OccupancyOptions resolve appointments that carry no end. They follow the
// same rule as ConflictOptions: catalog duration first, then FallbackDuration.
type OccupancyOptions struct {
	Catalog          Catalog
	FallbackDuration time.Duration
}

// DayOccupancy measures day against the business-hours window. Appointment
// and partial-block minutes are clipped to the window and summed; the
// percentage is rounded and clamped to 0..100. A whole-day block makes the
// day 100% and fully blocked.
func DayOccupancy(day time.Time, appointments []Appointment, blocks []BlockedPeriod, hours BusinessHours, opts OccupancyOptions) Occupancy {
	day = StartOfDay(day)
	occ := Occupancy{Date: day, TotalMinutes: hours.Minutes()}

	for _, a := range appointments {
		if a.Active() && SameDate(a.Start, day) {
			occ.AppointmentCount++
		}
	}
	for _, b := range blocks {
		if b.On(day) {
			occ.BlockCount++
		}
	}

	if DayBlocked(day, blocks) {
		occ.FullyBlocked = true
		occ.Percentage = 100
		occ.OccupiedMinutes = occ.TotalMinutes
		return occ
	}
	if occ.TotalMinutes == 0 {
		return occ
	}

	window := hours.Window(day)
	var occupied time.Duration
	for _, a := range appointments {
		if !a.Active() {
			continue
		}
		occupied += OverlapDuration(Span(a, opts.Catalog, opts.FallbackDuration), window)
	}
	for _, b := range blocks {
		if span, ok := b.Partial(); ok {
			occupied += OverlapDuration(span, window)
		}
	}

	occ.OccupiedMinutes = int(occupied / time.Minute)
	pct := math.Round(float64(occupied) / float64(window.Duration()) * 100)
	occ.Percentage = int(math.Max(0, math.Min(100, pct)))
	return occ
}

// RangeOccupancy returns one Occupancy per day starting at from.
func RangeOccupancy(from time.Time, days int, appointments []Appointment, blocks []BlockedPeriod, hours BusinessHours, opts OccupancyOptions) []Occupancy {
	if days <= 0 {
		return nil
	}
	out := make([]Occupancy, 0, days)
	first := StartOfDay(from)
	for i := 0; i < days; i++ {
		out = append(out, DayOccupancy(AddDays(first, i), appointments, blocks, hours, opts))
	}
	return out
}

// MonthOccupancy returns one Occupancy per day of month's calendar month.
func MonthOccupancy(month time.Time, appointments []Appointment, blocks []BlockedPeriod, hours BusinessHours, opts OccupancyOptions) []Occupancy {
	start, _ := MonthBounds(month)
	return RangeOccupancy(start, DaysInMonth(month), appointments, blocks, hours, opts)
}
