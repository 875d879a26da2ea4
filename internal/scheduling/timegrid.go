package scheduling

import "time"

// GenerateSlots returns the bookable time points of day, from opening to
// closing inclusive, one granularity apart. The last point is always the
// closing time, even when the window does not divide evenly.
func GenerateSlots(day time.Time, hours BusinessHours) []time.Time {
	if hours.Validate() != nil {
		return nil
	}
	window := hours.Window(day)
	slots := make([]time.Time, 0, int(window.Duration()/hours.Granularity)+2)
	for t := window.Start; t.Before(window.End); t = t.Add(hours.Granularity) {
		slots = append(slots, t)
	}
	return append(slots, window.End)
}
