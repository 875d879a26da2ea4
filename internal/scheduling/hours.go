package scheduling

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses "09:00" style 24-hour times.
func ParseClock(value string) (ClockTime, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return ClockTime{}, fmt.Errorf("scheduling: parse clock %q: %w", value, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On places the clock time on the calendar day of day.
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// BusinessHours is the daily bookable window and the grid step inside it.
type BusinessHours struct {
	Open        ClockTime
	Close       ClockTime
	Granularity time.Duration
}

// DefaultBusinessHours opens 07:00 to 19:00 on a 30 minute grid.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Open:        ClockTime{Hour: 7},
		Close:       ClockTime{Hour: 19},
		Granularity: 30 * time.Minute,
	}
}

// Validate rejects windows that close before they open or grids that never advance.
func (h BusinessHours) Validate() error {
	if h.Close.Minutes() <= h.Open.Minutes() {
		return fmt.Errorf("%w: close %s is not after open %s", ErrInvalidBusinessHours, h.Close, h.Open)
	}
	if h.Granularity <= 0 {
		return fmt.Errorf("%w: granularity %s", ErrInvalidBusinessHours, h.Granularity)
	}
	return nil
}

// Window returns the business-hours interval on day.
func (h BusinessHours) Window(day time.Time) Interval {
	return Interval{Start: h.Open.On(day), End: h.Close.On(day)}
}

// Minutes is the length of the business day.
func (h BusinessHours) Minutes() int {
	if n := h.Close.Minutes() - h.Open.Minutes(); n > 0 {
		return n
	}
	return 0
}
