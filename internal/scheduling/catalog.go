package scheduling

import (
	"fmt"
	"time"
)

// Catalog indexes services by ID.
type Catalog map[string]Service

// NewCatalog builds a catalog from a service list. Later duplicates win.
func NewCatalog(services []Service) Catalog {
	c := make(Catalog, len(services))
	for _, s := range services {
		c[s.ID] = s
	}
	return c
}

// Lookup returns the service with id. A nil catalog finds nothing.
func (c Catalog) Lookup(id string) (Service, bool) {
	s, ok := c[id]
	return s, ok
}

// Require returns the service with id or ErrUnknownService.
func (c Catalog) Require(id string) (Service, error) {
	s, ok := c.Lookup(id)
	if !ok {
		return Service{}, fmt.Errorf("%w: %s", ErrUnknownService, id)
	}
	return s, nil
}

// Duration returns the service duration for id, or fallback when unknown.
func (c Catalog) Duration(id string, fallback time.Duration) time.Duration {
	if s, ok := c.Lookup(id); ok && s.Duration() > 0 {
		return s.Duration()
	}
	return fallback
}

// ServiceName returns a display name for the appointment's service.
func (c Catalog) ServiceName(a Appointment) string {
	if a.ServiceName != "" {
		return a.ServiceName
	}
	if s, ok := c.Lookup(a.ServiceID); ok && s.Name != "" {
		return s.Name
	}
	return a.ServiceID
}

// EffectiveEnd returns when an appointment stops occupying the calendar: its
// own end, else start plus the service duration, else start plus fallback.
func EffectiveEnd(a Appointment, catalog Catalog, fallback time.Duration) time.Time {
	if a.End.After(a.Start) {
		return a.End
	}
	if fallback <= 0 {
		fallback = DefaultDuration
	}
	return a.Start.Add(catalog.Duration(a.ServiceID, fallback))
}

// Span returns the appointment's effective interval.
func Span(a Appointment, catalog Catalog, fallback time.Duration) Interval {
	return Interval{Start: a.Start, End: EffectiveEnd(a, catalog, fallback)}
}
