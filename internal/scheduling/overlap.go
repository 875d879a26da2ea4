package scheduling

import "time"

// Overlaps reports whether two intervals intersect. Intervals are half-open,
// and two intervals starting at the same instant always overlap, even when
// one of them is empty.
func Overlaps(a, b Interval) bool {
	return OverlapsAt(a.Start, a.End, b.Start, b.End)
}

// OverlapsAt is Overlaps over raw bounds.
func OverlapsAt(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aStart.Equal(bStart) {
		return true
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapDuration returns how much of a lies inside b.
func OverlapDuration(a, b Interval) time.Duration {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}
