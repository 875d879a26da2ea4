package dashboard

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wolfman30/salon-dashboard/internal/scheduling"
	"github.com/wolfman30/salon-dashboard/internal/store"
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

// memRepo is an in-memory Repository. Writes run their conflict check
// against the same day window the Postgres store uses.
type memRepo struct {
	mu           sync.Mutex
	services     []scheduling.Service
	clients      []scheduling.Client
	appointments []scheduling.Appointment
	blocks       []scheduling.BlockedPeriod
	listCalls    int
	listErr      error
}

func newMemRepo() *memRepo {
	return &memRepo{
		services: []scheduling.Service{
			{ID: "svc-cut", Name: "Corte", Price: decimal.NewFromInt(40), DurationMinutes: 60, Active: true},
			{ID: "svc-color", Name: "Coloracao", Price: decimal.NewFromInt(90), DurationMinutes: 90, Active: true},
			{ID: "svc-old", Name: "Escova antiga", Price: decimal.NewFromInt(30), DurationMinutes: 30, Active: false},
		},
		clients: []scheduling.Client{
			{ID: "cli-ana", Name: "Ana"},
			{ID: "cli-bia", Name: "Bia"},
		},
	}
}

func (m *memRepo) add(a scheduling.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments = append(m.appointments, a)
}

func (m *memRepo) ListAppointments(_ context.Context, from, to time.Time) ([]scheduling.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []scheduling.Appointment
	for _, a := range m.appointments {
		end := a.End
		if end.IsZero() {
			end = a.Start.Add(time.Minute)
		}
		if a.Start.Before(to) && end.After(from) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *memRepo) ListAllAppointments(ctx context.Context) ([]scheduling.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]scheduling.Appointment(nil), m.appointments...), nil
}

func (m *memRepo) GetAppointment(_ context.Context, id string) (scheduling.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.ID == id {
			return a, nil
		}
	}
	return scheduling.Appointment{}, fmt.Errorf("mem: appointment %s: %w", id, store.ErrNotFound)
}

func (m *memRepo) CreateAppointment(ctx context.Context, a scheduling.Appointment, check store.ConflictCheck) error {
	if err := m.runCheck(ctx, a, check); err != nil {
		return err
	}
	m.add(a)
	return nil
}

func (m *memRepo) RescheduleAppointment(ctx context.Context, a scheduling.Appointment, check store.ConflictCheck) error {
	if err := m.runCheck(ctx, a, check); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.appointments {
		if m.appointments[i].ID == a.ID {
			m.appointments[i].Start = a.Start
			m.appointments[i].End = a.End
			m.appointments[i].UpdatedAt = a.UpdatedAt
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memRepo) UpdateAppointmentStatus(_ context.Context, id string, from, to scheduling.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.appointments {
		if m.appointments[i].ID == id && m.appointments[i].Status == from {
			m.appointments[i].Status = to
			m.appointments[i].UpdatedAt = at
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memRepo) ListServices(context.Context) ([]scheduling.Service, error) {
	return m.services, nil
}

func (m *memRepo) GetService(_ context.Context, id string) (scheduling.Service, error) {
	for _, s := range m.services {
		if s.ID == id {
			return s, nil
		}
	}
	return scheduling.Service{}, fmt.Errorf("mem: service %s: %w", id, store.ErrNotFound)
}

func (m *memRepo) ListClients(context.Context) ([]scheduling.Client, error) {
	return m.clients, nil
}

func (m *memRepo) GetClient(_ context.Context, id string) (scheduling.Client, error) {
	for _, c := range m.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return scheduling.Client{}, fmt.Errorf("mem: client %s: %w", id, store.ErrNotFound)
}

func (m *memRepo) ListBlockedPeriods(_ context.Context, from, to time.Time) ([]scheduling.BlockedPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []scheduling.BlockedPeriod
	for _, b := range m.blocks {
		if !b.Date.Before(scheduling.StartOfDay(from)) && b.Date.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memRepo) CreateBlockedPeriod(_ context.Context, b scheduling.BlockedPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = append(m.blocks, b)
	return nil
}

func (m *memRepo) DeleteBlockedPeriod(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.blocks {
		if b.ID == id {
			m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("mem: blocked period %s: %w", id, store.ErrNotFound)
}

func (m *memRepo) runCheck(ctx context.Context, a scheduling.Appointment, check store.ConflictCheck) error {
	from := scheduling.StartOfDay(a.Start)
	to := scheduling.AddDays(scheduling.StartOfDay(a.End), 1)
	nearby, _ := m.ListAppointments(ctx, from, to)
	blocks, _ := m.ListBlockedPeriods(ctx, from, to)
	return check(nearby, blocks)
}

type memExpenses struct {
	expenses []scheduling.Expense
}

func (m *memExpenses) List(_ context.Context, from, to time.Time, categories []string) ([]scheduling.Expense, error) {
	var out []scheduling.Expense
	for _, e := range m.expenses {
		if e.IncurredOn.Before(from) || !e.IncurredOn.Before(to) {
			continue
		}
		if len(categories) > 0 && !slices.Contains(categories, e.Category) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memExpenses) Create(_ context.Context, e scheduling.Expense) error {
	m.expenses = append(m.expenses, e)
	return nil
}

func (m *memExpenses) Categories(context.Context) ([]string, error) {
	var out []string
	for _, e := range m.expenses {
		if e.Category != "" && !slices.Contains(out, e.Category) {
			out = append(out, e.Category)
		}
	}
	slices.Sort(out)
	return out, nil
}

func booked(t *testing.T, id, clientID, serviceID, start string, minutes int, status scheduling.Status, price int64) scheduling.Appointment {
	t.Helper()
	s := at(t, start)
	return scheduling.Appointment{
		ID:        id,
		ClientID:  clientID,
		ServiceID: serviceID,
		Start:     s,
		End:       s.Add(time.Duration(minutes) * time.Minute),
		Price:     decimal.NewFromInt(price),
		Status:    status,
	}
}

func newTestService(t *testing.T, repo *memRepo, now string) *Service {
	t.Helper()
	clock := at(t, now)
	ids := 0
	return NewService(Deps{
		Repo:     repo,
		Expenses: &memExpenses{},
		Settings: Settings{
			Hours:           scheduling.DefaultBusinessHours(),
			Location:        salonTZ,
			DefaultDuration: time.Hour,
			LookaheadDays:   7,
			WeekStart:       time.Sunday,
		},
		Now: func() time.Time { return clock },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	})
}
