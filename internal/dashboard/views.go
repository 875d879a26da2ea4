package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/salon-dashboard/internal/cache"
	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

// MonthView is the calendar grid for one month.
type MonthView struct {
	Month string                 `json:"month"`
	Days  []scheduling.Occupancy `json:"days"`
	// AverageOccupancy covers the days that are not fully blocked.
	AverageOccupancy int `json:"average_occupancy"`
}

// DayView is one calendar day with its bookings and free slots.
type DayView struct {
	Occupancy    scheduling.Occupancy       `json:"occupancy"`
	Appointments []scheduling.Appointment   `json:"appointments"`
	Blocks       []scheduling.BlockedPeriod `json:"blocks"`
	FreeSlots    []scheduling.Slot          `json:"free_slots"`
}

// FinanceView is the finance summary plus the projection chosen by configuration.
type FinanceView struct {
	scheduling.FinanceSummary
	Inclusion scheduling.RevenueInclusion `json:"inclusion"`
	Expected  decimal.Decimal             `json:"expected"`
}

// MonthReport is the month-close figure set archived at the end of each month.
type MonthReport struct {
	Month            string                      `json:"month"`
	Revenue          decimal.Decimal             `json:"revenue"`
	Expenses         decimal.Decimal             `json:"expenses"`
	NetProfit        decimal.Decimal             `json:"net_profit"`
	Services         []scheduling.ServiceRevenue `json:"services"`
	Daily            []scheduling.DailyRevenue   `json:"daily"`
	AverageOccupancy int                         `json:"average_occupancy"`
	ConfirmedCount   int                         `json:"confirmed_count"`
	CanceledCount    int                         `json:"canceled_count"`
	GeneratedAt      time.Time                   `json:"generated_at"`
}

// MonthCalendar returns per-day occupancy for the month containing month.
func (s *Service) MonthCalendar(ctx context.Context, month time.Time) (MonthView, error) {
	ctx, span := tracer.Start(ctx, "dashboard.month_calendar")
	defer span.End()

	start, next := scheduling.MonthBounds(month.In(s.settings.Location))
	label := start.Format("2006-01")
	span.SetAttributes(attribute.String("salon.month", label))

	view, err := cache.Fetch(ctx, s.cache, "calendar", label, func(ctx context.Context) (MonthView, error) {
		defer s.timeView("calendar")()
		appointments, blocks, err := s.snapshot(ctx, start, next)
		if err != nil {
			return MonthView{}, err
		}
		catalog, err := s.catalog(ctx)
		if err != nil {
			return MonthView{}, err
		}
		days := scheduling.MonthOccupancy(start, appointments, blocks, s.settings.Hours, s.occupancyOptions(catalog))
		return MonthView{Month: label, Days: days, AverageOccupancy: averageOccupancy(days)}, nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return view, err
}

// Day returns the occupancy, bookings, blocks and free slots of one day.
func (s *Service) Day(ctx context.Context, day time.Time) (DayView, error) {
	ctx, span := tracer.Start(ctx, "dashboard.day")
	defer span.End()

	day = scheduling.StartOfDay(day.In(s.settings.Location))
	span.SetAttributes(attribute.String("salon.day", day.Format(time.DateOnly)))

	view, err := cache.Fetch(ctx, s.cache, "day", day.Format(time.DateOnly), func(ctx context.Context) (DayView, error) {
		defer s.timeView("day")()
		appointments, blocks, err := s.snapshot(ctx, day, scheduling.AddDays(day, 1))
		if err != nil {
			return DayView{}, err
		}
		catalog, err := s.catalog(ctx)
		if err != nil {
			return DayView{}, err
		}
		query := s.availabilityQuery(day, 1, s.settings.DefaultDuration)
		free := []scheduling.Slot{}
		for slot := range scheduling.AvailableSlots(query, appointments, blocks, catalog) {
			free = append(free, slot)
		}
		return DayView{
			Occupancy:    scheduling.DayOccupancy(day, appointments, blocks, s.settings.Hours, s.occupancyOptions(catalog)),
			Appointments: nonNil(appointments),
			Blocks:       nonNil(blocks),
			FreeSlots:    free,
		}, nil
	})
	if err != nil {
		span.RecordError(err)
		return DayView{}, err
	}
	view.FreeSlots = upcoming(view.FreeSlots, s.now())
	return view, nil
}

func financeKey(now time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Hour
	}
	return now.Truncate(bucket).Format("2006-01-02T15:04")
}

// upcoming drops slots that start before now. Cached views are keyed per day,
// so the cut happens after the cache lookup.
func upcoming(slots []scheduling.Slot, now time.Time) []scheduling.Slot {
	out := make([]scheduling.Slot, 0, len(slots))
	for _, slot := range slots {
		if !slot.Start.Before(now) {
			out = append(out, slot)
		}
	}
	return out
}

// FinanceSummary computes today, week and month revenue, the projection to
// month end and the month's net profit as of now. Cached summaries are keyed
// by slot-granularity bucket, so the expected figures can lag by at most one
// bucket plus the cache's stale window.
func (s *Service) FinanceSummary(ctx context.Context) (FinanceView, error) {
	ctx, span := tracer.Start(ctx, "dashboard.finance_summary")
	defer span.End()

	now := s.now()
	view, err := cache.Fetch(ctx, s.cache, "finance", financeKey(now, s.settings.Hours.Granularity), func(ctx context.Context) (FinanceView, error) {
		defer s.timeView("finance")()
		monthStart, nextMonth := scheduling.MonthBounds(now)
		weekStart := scheduling.StartOfWeek(now, s.settings.WeekStart)
		from, until := monthStart, nextMonth
		if weekStart.Before(from) {
			from = weekStart
		}
		if weekEnd := scheduling.AddDays(weekStart, 7); weekEnd.After(until) {
			until = weekEnd
		}

		appointments, err := s.repo.ListAppointments(ctx, from, until)
		if err != nil {
			return FinanceView{}, fmt.Errorf("dashboard: load appointments: %w", err)
		}
		expenses, err := s.listExpenses(ctx, monthStart, nextMonth)
		if err != nil {
			return FinanceView{}, err
		}
		summary := scheduling.Summarize(appointments, expenses, now, s.settings.WeekStart)
		expected := summary.ExpectedConfirmed
		if s.settings.Inclusion == scheduling.ConfirmedAndPending {
			expected = summary.ExpectedWithPending
		}
		return FinanceView{FinanceSummary: summary, Inclusion: s.settings.Inclusion, Expected: expected}, nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return view, err
}

// ServiceBreakdown groups confirmed revenue by service for appointments starting in [from, to).
func (s *Service) ServiceBreakdown(ctx context.Context, from, to time.Time) ([]scheduling.ServiceRevenue, error) {
	ctx, span := tracer.Start(ctx, "dashboard.service_breakdown")
	defer span.End()

	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", ErrInvalidRequest)
	}
	key := from.Format(time.RFC3339) + ":" + to.Format(time.RFC3339)
	rows, err := cache.Fetch(ctx, s.cache, "services", key, func(ctx context.Context) ([]scheduling.ServiceRevenue, error) {
		defer s.timeView("services")()
		appointments, err := s.repo.ListAppointments(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("dashboard: load appointments: %w", err)
		}
		catalog, err := s.catalog(ctx)
		if err != nil {
			return nil, err
		}
		return nonNil(scheduling.ServiceBreakdown(scheduling.StartingIn(appointments, from, to), catalog)), nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return rows, err
}

// DailyRevenue returns confirmed revenue per day for days days starting at from.
func (s *Service) DailyRevenue(ctx context.Context, from time.Time, days int) ([]scheduling.DailyRevenue, error) {
	if days <= 0 || days > 366 {
		return nil, fmt.Errorf("%w: days must be between 1 and 366", ErrInvalidRequest)
	}
	first := scheduling.StartOfDay(from.In(s.settings.Location))
	key := fmt.Sprintf("%s:%d", first.Format(time.DateOnly), days)
	return cache.Fetch(ctx, s.cache, "daily", key, func(ctx context.Context) ([]scheduling.DailyRevenue, error) {
		defer s.timeView("daily")()
		appointments, err := s.repo.ListAppointments(ctx, first, scheduling.AddDays(first, days))
		if err != nil {
			return nil, fmt.Errorf("dashboard: load appointments: %w", err)
		}
		return scheduling.DailySeries(appointments, first, days), nil
	})
}

// InactiveClients lists clients without a visit in the last windowDays days.
// A non-positive window uses the configured default.
func (s *Service) InactiveClients(ctx context.Context, windowDays int) ([]scheduling.InactiveClient, error) {
	ctx, span := tracer.Start(ctx, "dashboard.inactive_clients")
	defer span.End()

	if windowDays <= 0 {
		windowDays = s.settings.InactiveClientDays
	}
	span.SetAttributes(attribute.Int("salon.window_days", windowDays))

	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("dashboard: load clients: %w", err)
	}
	appointments, err := s.repo.ListAllAppointments(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("dashboard: load appointments: %w", err)
	}
	return nonNil(scheduling.InactiveClients(clients, appointments, s.now(), windowDays)), nil
}

// MonthReport builds the month-close figures for the month containing month.
// It reads the store directly so archived reports never come from cache.
func (s *Service) MonthReport(ctx context.Context, month time.Time) (MonthReport, error) {
	ctx, span := tracer.Start(ctx, "dashboard.month_report")
	defer span.End()

	start, next := scheduling.MonthBounds(month.In(s.settings.Location))
	span.SetAttributes(attribute.String("salon.month", start.Format("2006-01")))

	appointments, blocks, err := s.snapshot(ctx, start, next)
	if err != nil {
		span.RecordError(err)
		return MonthReport{}, err
	}
	expenses, err := s.listExpenses(ctx, start, next)
	if err != nil {
		span.RecordError(err)
		return MonthReport{}, err
	}
	catalog, err := s.catalog(ctx)
	if err != nil {
		span.RecordError(err)
		return MonthReport{}, err
	}

	inMonth := scheduling.StartingIn(appointments, start, next)
	window := scheduling.Interval{Start: start, End: next}
	revenue := scheduling.RevenueInRange(inMonth, start, next)
	report := MonthReport{
		Month:            start.Format("2006-01"),
		Revenue:          revenue,
		Expenses:         scheduling.ExpensesInRange(expenses, window),
		NetProfit:        scheduling.NetProfit(revenue, expenses, window),
		Services:         nonNil(scheduling.ServiceBreakdown(inMonth, catalog)),
		Daily:            scheduling.DailySeries(inMonth, start, scheduling.DaysInMonth(start)),
		AverageOccupancy: averageOccupancy(scheduling.MonthOccupancy(start, appointments, blocks, s.settings.Hours, s.occupancyOptions(catalog))),
		GeneratedAt:      s.now(),
	}
	for _, a := range inMonth {
		switch a.Status {
		case scheduling.StatusConfirmed:
			report.ConfirmedCount++
		case scheduling.StatusCanceled:
			report.CanceledCount++
		}
	}
	return report, nil
}

func (s *Service) listExpenses(ctx context.Context, from, to time.Time) ([]scheduling.Expense, error) {
	if s.expenses == nil {
		return nil, nil
	}
	expenses, err := s.expenses.List(ctx, from, to, nil)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load expenses: %w", err)
	}
	return expenses, nil
}

func averageOccupancy(days []scheduling.Occupancy) int {
	total, counted := 0, 0
	for _, d := range days {
		if d.FullyBlocked {
			continue
		}
		total += d.Percentage
		counted++
	}
	if counted == 0 {
		return 0
	}
	return (total + counted/2) / counted
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
