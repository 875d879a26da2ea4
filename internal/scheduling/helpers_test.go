package scheduling

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var salonTZ = time.FixedZone("BRT", -3*60*60)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, salonTZ)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation(time.DateOnly, value, salonTZ)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func appt(t *testing.T, id, start, end string, status Status, price int64) Appointment {
	t.Helper()
	a := Appointment{
		ID:       id,
		ClientID: "client-" + id,
		Start:    at(t, start),
		Price:    decimal.NewFromInt(price),
		Status:   status,
	}
	if end != "" {
		a.End = at(t, end)
	}
	return a
}

func span(t *testing.T, start, end string) Interval {
	t.Helper()
	return Interval{Start: at(t, start), End: at(t, end)}
}
