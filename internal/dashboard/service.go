// Package dashboard serves the salon calendar and finance views. It loads
// snapshots from the store, runs the scheduling rules over them and caches
// the computed views.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/salon-dashboard/internal/cache"
	"github.com/wolfman30/salon-dashboard/internal/observability/metrics"
	"github.com/wolfman30/salon-dashboard/internal/scheduling"
	"github.com/wolfman30/salon-dashboard/internal/store"
	"github.com/wolfman30/salon-dashboard/pkg/logging"
)

var tracer = otel.Tracer("salon.internal.dashboard")

var (
	// ErrConflict is wrapped by *ConflictError.
	ErrConflict = errors.New("dashboard: booking conflict")
	// ErrInvalidRequest marks caller input the service cannot act on.
	ErrInvalidRequest = errors.New("dashboard: invalid request")
)

// ConflictError carries the verdict that blocked a booking.
type ConflictError struct {
	Verdict scheduling.Conflict
}

func (e *ConflictError) Error() string {
	return "dashboard: booking conflict: " + e.Verdict.Detail
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// Repository is the persistence the service needs.
type Repository interface {
	ListAppointments(ctx context.Context, from, to time.Time) ([]scheduling.Appointment, error)
	ListAllAppointments(ctx context.Context) ([]scheduling.Appointment, error)
	GetAppointment(ctx context.Context, id string) (scheduling.Appointment, error)
	CreateAppointment(ctx context.Context, a scheduling.Appointment, check store.ConflictCheck) error
	RescheduleAppointment(ctx context.Context, a scheduling.Appointment, check store.ConflictCheck) error
	UpdateAppointmentStatus(ctx context.Context, id string, from, to scheduling.Status, at time.Time) error
	ListServices(ctx context.Context) ([]scheduling.Service, error)
	GetService(ctx context.Context, id string) (scheduling.Service, error)
	ListClients(ctx context.Context) ([]scheduling.Client, error)
	GetClient(ctx context.Context, id string) (scheduling.Client, error)
	ListBlockedPeriods(ctx context.Context, from, to time.Time) ([]scheduling.BlockedPeriod, error)
	CreateBlockedPeriod(ctx context.Context, b scheduling.BlockedPeriod) error
	DeleteBlockedPeriod(ctx context.Context, id string) error
}

// ExpenseSource stores business expenses.
type ExpenseSource interface {
	List(ctx context.Context, from, to time.Time, categories []string) ([]scheduling.Expense, error)
	Create(ctx context.Context, e scheduling.Expense) error
	Categories(ctx context.Context) ([]string, error)
}

// Settings are the business rules the service applies.
type Settings struct {
	Hours              scheduling.BusinessHours
	Location           *time.Location
	DefaultDuration    time.Duration
	LookaheadDays      int
	InactiveClientDays int
	WeekStart          time.Weekday
	Inclusion          scheduling.RevenueInclusion
	FitWithinHours     bool
}

// Deps wires a Service.
type Deps struct {
	Repo     Repository
	Expenses ExpenseSource
	Cache    *cache.Cache
	Metrics  *metrics.SchedulingMetrics
	Logger   *logging.Logger
	Settings Settings
	Now      func() time.Time
	NewID    func() string
}

// Service exposes the dashboard operations.
type Service struct {
	repo     Repository
	expenses ExpenseSource
	cache    *cache.Cache
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
	settings Settings
	now      func() time.Time
	newID    func() string
}

// NewService creates a dashboard service.
func NewService(deps Deps) *Service {
	if deps.Repo == nil {
		panic("dashboard: repository cannot be nil")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	s := deps.Settings
	if s.Location == nil {
		s.Location = time.Local
	}
	if s.Hours.Validate() != nil {
		s.Hours = scheduling.DefaultBusinessHours()
	}
	if s.DefaultDuration <= 0 {
		s.DefaultDuration = scheduling.DefaultDuration
	}
	if s.LookaheadDays <= 0 {
		s.LookaheadDays = 14
	}
	if s.InactiveClientDays <= 0 {
		s.InactiveClientDays = 60
	}
	if s.Inclusion == "" {
		s.Inclusion = scheduling.ConfirmedOnly
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Service{
		repo:     deps.Repo,
		expenses: deps.Expenses,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		settings: s,
		now:      func() time.Time { return now().In(s.Location) },
		newID:    newID,
	}
}

// Location is the wall-clock location all dates are interpreted in.
func (s *Service) Location() *time.Location {
	return s.settings.Location
}

// SlotQuery selects free slots.
type SlotQuery struct {
	From      time.Time
	Days      int
	ServiceID string
}

// AvailableSlots lists free start times over the requested days for the
// service's duration. Slots already in the past are dropped.
func (s *Service) AvailableSlots(ctx context.Context, q SlotQuery) ([]scheduling.Slot, error) {
	ctx, span := tracer.Start(ctx, "dashboard.available_slots")
	defer span.End()

	if q.Days <= 0 {
		q.Days = s.settings.LookaheadDays
	}
	if q.Days > 92 {
		return nil, fmt.Errorf("%w: days must be at most 92", ErrInvalidRequest)
	}
	from := scheduling.StartOfDay(q.From.In(s.settings.Location))
	span.SetAttributes(
		attribute.String("salon.slots.from", from.Format(time.DateOnly)),
		attribute.Int("salon.slots.days", q.Days),
		attribute.String("salon.service_id", q.ServiceID),
	)

	key := fmt.Sprintf("%s:%d:%s", from.Format(time.DateOnly), q.Days, q.ServiceID)
	slots, err := cache.Fetch(ctx, s.cache, "slots", key, func(ctx context.Context) ([]scheduling.Slot, error) {
		defer s.timeView("slots")()
		duration, catalog, err := s.durationFor(ctx, q.ServiceID)
		if err != nil {
			return nil, err
		}
		until := scheduling.AddDays(from, q.Days+1)
		appointments, blocks, err := s.snapshot(ctx, from, until)
		if err != nil {
			return nil, err
		}
		query := s.availabilityQuery(from, q.Days, duration)
		out := []scheduling.Slot{}
		for slot := range scheduling.AvailableSlots(query, appointments, blocks, catalog) {
			out = append(out, slot)
		}
		return out, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return upcoming(slots, s.now()), nil
}

// NextAvailable returns the next count free slots from now within the lookahead window.
func (s *Service) NextAvailable(ctx context.Context, count int, serviceID string) ([]scheduling.Slot, error) {
	ctx, span := tracer.Start(ctx, "dashboard.next_available")
	defer span.End()

	if count <= 0 || count > 50 {
		return nil, fmt.Errorf("%w: count must be between 1 and 50", ErrInvalidRequest)
	}
	duration, catalog, err := s.durationFor(ctx, serviceID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	now := s.now()
	from := scheduling.StartOfDay(now)
	days := s.settings.LookaheadDays
	appointments, blocks, err := s.snapshot(ctx, from, scheduling.AddDays(from, days+1))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	query := s.availabilityQuery(from, days, duration)
	query.NotBefore = now
	return scheduling.NextAvailable(scheduling.AvailableSlots(query, appointments, blocks, catalog), count), nil
}

// CheckConflict reports whether candidate could be booked, ignoring excludeID.
func (s *Service) CheckConflict(ctx context.Context, candidate scheduling.Interval, excludeID string) (scheduling.Conflict, error) {
	ctx, span := tracer.Start(ctx, "dashboard.check_conflict")
	defer span.End()

	if err := candidate.Validate(); err != nil {
		return scheduling.Conflict{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	from := scheduling.StartOfDay(candidate.Start.In(s.settings.Location))
	until := scheduling.AddDays(scheduling.StartOfDay(candidate.End.In(s.settings.Location)), 1)
	appointments, blocks, err := s.snapshot(ctx, from, until)
	if err != nil {
		span.RecordError(err)
		return scheduling.Conflict{}, err
	}
	catalog, err := s.catalog(ctx)
	if err != nil {
		span.RecordError(err)
		return scheduling.Conflict{}, err
	}
	verdict, err := scheduling.HasConflict(candidate, appointments, blocks, s.conflictOptions(excludeID, catalog))
	if err != nil {
		return scheduling.Conflict{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	s.metrics.ObserveConflictCheck(string(verdict.Reason))
	span.SetAttributes(attribute.Bool("salon.conflict", verdict.Conflicting))
	return verdict, nil
}

// ListAppointments returns appointments overlapping [from, to).
func (s *Service) ListAppointments(ctx context.Context, from, to time.Time) ([]scheduling.Appointment, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", ErrInvalidRequest)
	}
	return s.repo.ListAppointments(ctx, from, to)
}

func (s *Service) availabilityQuery(from time.Time, days int, duration time.Duration) scheduling.AvailabilityQuery {
	return scheduling.AvailabilityQuery{
		From:             from,
		DaysAhead:        days,
		Hours:            s.settings.Hours,
		Duration:         duration,
		FitWithinHours:   s.settings.FitWithinHours,
		FallbackDuration: s.settings.DefaultDuration,
	}
}

func (s *Service) conflictOptions(excludeID string, catalog scheduling.Catalog) scheduling.ConflictOptions {
	return scheduling.ConflictOptions{
		ExcludeID:        excludeID,
		Catalog:          catalog,
		FallbackDuration: s.settings.DefaultDuration,
	}
}

func (s *Service) occupancyOptions(catalog scheduling.Catalog) scheduling.OccupancyOptions {
	return scheduling.OccupancyOptions{Catalog: catalog, FallbackDuration: s.settings.DefaultDuration}
}

// durationFor resolves the booking length for serviceID. An empty ID uses the default.
func (s *Service) durationFor(ctx context.Context, serviceID string) (time.Duration, scheduling.Catalog, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return 0, nil, err
	}
	if serviceID == "" {
		return s.settings.DefaultDuration, catalog, nil
	}
	if _, err := catalog.Require(serviceID); err != nil {
		return 0, nil, err
	}
	return catalog.Duration(serviceID, s.settings.DefaultDuration), catalog, nil
}

func (s *Service) catalog(ctx context.Context) (scheduling.Catalog, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load services: %w", err)
	}
	return scheduling.NewCatalog(services), nil
}

func (s *Service) snapshot(ctx context.Context, from, until time.Time) ([]scheduling.Appointment, []scheduling.BlockedPeriod, error) {
	appointments, err := s.repo.ListAppointments(ctx, from, until)
	if err != nil {
		return nil, nil, fmt.Errorf("dashboard: load appointments: %w", err)
	}
	blocks, err := s.repo.ListBlockedPeriods(ctx, from, until)
	if err != nil {
		return nil, nil, fmt.Errorf("dashboard: load blocked periods: %w", err)
	}
	return appointments, blocks, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("dashboard: cache invalidation failed", "error", err)
	}
}

func (s *Service) timeView(view string) func() {
	start := time.Now()
	return func() {
		s.metrics.ObserveView(view, time.Since(start).Seconds())
	}
}
