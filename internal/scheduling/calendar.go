package scheduling

import "time"

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate compares wall-clock calendar dates, ignoring time of day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AddDays moves t by n calendar days keeping the wall-clock time.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// StartOfWeek returns midnight of the most recent weekStart on or before t.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return AddDays(day, -offset)
}

// MonthBounds returns the first instant of t's month and of the following month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// MonthEnd returns the last representable instant of t's month.
func MonthEnd(t time.Time) time.Time {
	_, next := MonthBounds(t)
	return next.Add(-time.Nanosecond)
}

// DaysInMonth counts the calendar days of t's month.
func DaysInMonth(t time.Time) int {
	start, next := MonthBounds(t)
	days := 0
	for d := start; d.Before(next); d = AddDays(d, 1) {
		days++
	}
	return days
}
