package scheduling

import (
	"math"
	"sort"
	"time"
)

// InactiveClient is a client who has not been seen within the window.
type InactiveClient struct {
	Client    Client    `json:"client"`
	LastVisit time.Time `json:"last_visit,omitzero"`
	// DaysSince is -1 for clients who never booked.
	DaysSince int `json:"days_since"`
}

// InactiveClients lists clients with no active appointment starting on or
// after now minus windowDays, future bookings included. Never-booked clients
// come first, then the longest absent.
func InactiveClients(clients []Client, appointments []Appointment, now time.Time, windowDays int) []InactiveClient {
	cutoff := AddDays(StartOfDay(now), -windowDays)

	lastSeen := make(map[string]time.Time)
	recent := make(map[string]bool)
	for _, a := range appointments {
		if !a.Active() {
			continue
		}
		if !a.Start.Before(cutoff) {
			recent[a.ClientID] = true
		}
		if a.Start.After(now) {
			continue
		}
		if a.Start.After(lastSeen[a.ClientID]) {
			lastSeen[a.ClientID] = a.Start
		}
	}

	var out []InactiveClient
	for _, c := range clients {
		if recent[c.ID] {
			continue
		}
		item := InactiveClient{Client: c, DaysSince: -1}
		if last, ok := lastSeen[c.ID]; ok {
			item.LastVisit = last
			item.DaysSince = int(math.Round(StartOfDay(now).Sub(StartOfDay(last)).Hours() / 24))
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LastVisit.IsZero() != b.LastVisit.IsZero() {
			return a.LastVisit.IsZero()
		}
		if !a.LastVisit.Equal(b.LastVisit) {
			return a.LastVisit.Before(b.LastVisit)
		}
		return a.Client.Name < b.Client.Name
	})
	return out
}
