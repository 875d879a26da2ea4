package scheduling

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RevenueInclusion selects which statuses count toward projected revenue.
type RevenueInclusion string

const (
	ConfirmedOnly       RevenueInclusion = "confirmed"
	ConfirmedAndPending RevenueInclusion = "confirmed_and_pending"
)

func (inc RevenueInclusion) counts(s Status) bool {
	switch s {
	case StatusConfirmed:
		return true
	case StatusPending:
		return inc == ConfirmedAndPending
	default:
		return false
	}
}

// RevenueInRange sums confirmed appointments starting in [start, end).
func RevenueInRange(appointments []Appointment, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	window := Interval{Start: start, End: end}
	for _, a := range appointments {
		if a.Status == StatusConfirmed && window.Contains(a.Start) {
			total = total.Add(a.Price)
		}
	}
	return total
}

// ExpectedRevenue sums appointments starting in [from, through] whose status
// is counted by inclusion. Callers pass "now" or the month start as from.
func ExpectedRevenue(appointments []Appointment, from, through time.Time, inclusion RevenueInclusion) decimal.Decimal {
	total := decimal.Zero
	for _, a := range appointments {
		if !inclusion.counts(a.Status) {
			continue
		}
		if a.Start.Before(from) || a.Start.After(through) {
			continue
		}
		total = total.Add(a.Price)
	}
	return total
}

// ExpensesInRange sums expenses incurred in window.
func ExpensesInRange(expenses []Expense, window Interval) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if window.Contains(e.IncurredOn) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// NetProfit subtracts the expenses incurred in window from revenue.
func NetProfit(revenue decimal.Decimal, expenses []Expense, window Interval) decimal.Decimal {
	return revenue.Sub(ExpensesInRange(expenses, window))
}

// ServiceRevenue is one row of the per-service breakdown.
type ServiceRevenue struct {
	ServiceID string          `json:"service_id"`
	Name      string          `json:"name"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
}

// ServiceBreakdown groups confirmed appointments by service, highest revenue first.
// Ties break on count, then name.
func ServiceBreakdown(appointments []Appointment, catalog Catalog) []ServiceRevenue {
	index := make(map[string]int)
	var rows []ServiceRevenue
	for _, a := range appointments {
		if a.Status != StatusConfirmed {
			continue
		}
		i, ok := index[a.ServiceID]
		if !ok {
			i = len(rows)
			index[a.ServiceID] = i
			rows = append(rows, ServiceRevenue{ServiceID: a.ServiceID, Name: catalog.ServiceName(a), Total: decimal.Zero})
		}
		rows[i].Count++
		rows[i].Total = rows[i].Total.Add(a.Price)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].Total.Cmp(rows[j].Total); c != 0 {
			return c > 0
		}
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// StartingIn returns the appointments starting in [start, end), in order.
func StartingIn(appointments []Appointment, start, end time.Time) []Appointment {
	window := Interval{Start: start, End: end}
	var out []Appointment
	for _, a := range appointments {
		if window.Contains(a.Start) {
			out = append(out, a)
		}
	}
	return out
}

// DailyRevenue is realized revenue for one calendar day.
type DailyRevenue struct {
	Date    time.Time       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"count"`
}

// DailySeries returns confirmed revenue per day for days starting at from.
func DailySeries(appointments []Appointment, from time.Time, days int) []DailyRevenue {
	if days <= 0 {
		return nil
	}
	first := StartOfDay(from)
	out := make([]DailyRevenue, days)
	for i := range out {
		out[i] = DailyRevenue{Date: AddDays(first, i), Revenue: decimal.Zero}
	}
	end := AddDays(first, days)
	for _, a := range appointments {
		if a.Status != StatusConfirmed || a.Start.Before(first) || !a.Start.Before(end) {
			continue
		}
		for i := range out {
			if SameDate(out[i].Date, a.Start) {
				out[i].Revenue = out[i].Revenue.Add(a.Price)
				out[i].Count++
				break
			}
		}
	}
	return out
}

// FinanceSummary is the headline figures of the finance view.
type FinanceSummary struct {
	Today               decimal.Decimal `json:"today"`
	Week                decimal.Decimal `json:"week"`
	Month               decimal.Decimal `json:"month"`
	ExpectedConfirmed   decimal.Decimal `json:"expected_confirmed"`
	ExpectedWithPending decimal.Decimal `json:"expected_with_pending"`
	MonthExpenses       decimal.Decimal `json:"month_expenses"`
	MonthNetProfit      decimal.Decimal `json:"month_net_profit"`
	ConfirmedCount      int             `json:"confirmed_count"`
	PendingCount        int             `json:"pending_count"`
	CanceledCount       int             `json:"canceled_count"`
	AverageTicket       decimal.Decimal `json:"average_ticket"`
	GeneratedAt         time.Time       `json:"generated_at"`
	MonthStart          time.Time       `json:"month_start"`
	WeekStart           time.Time       `json:"week_start"`
}

// Summarize computes realized revenue for today, this week and this month,
// projected revenue from now to the end of the month in both inclusion
// variants, and the month's expenses and net profit. Status counts and the
// average ticket cover appointments starting this month.
func Summarize(appointments []Appointment, expenses []Expense, now time.Time, weekStart time.Weekday) FinanceSummary {
	today := StartOfDay(now)
	week := StartOfWeek(now, weekStart)
	monthStart, nextMonth := MonthBounds(now)

	s := FinanceSummary{
		Today:               RevenueInRange(appointments, today, AddDays(today, 1)),
		Week:                RevenueInRange(appointments, week, AddDays(week, 7)),
		Month:               RevenueInRange(appointments, monthStart, nextMonth),
		ExpectedConfirmed:   ExpectedRevenue(appointments, now, MonthEnd(now), ConfirmedOnly),
		ExpectedWithPending: ExpectedRevenue(appointments, now, MonthEnd(now), ConfirmedAndPending),
		MonthExpenses:       ExpensesInRange(expenses, Interval{Start: monthStart, End: nextMonth}),
		AverageTicket:       decimal.Zero,
		GeneratedAt:         now,
		MonthStart:          monthStart,
		WeekStart:           week,
	}
	s.MonthNetProfit = s.Month.Sub(s.MonthExpenses)

	for _, a := range StartingIn(appointments, monthStart, nextMonth) {
		switch a.Status {
		case StatusConfirmed:
			s.ConfirmedCount++
		case StatusPending:
			s.PendingCount++
		case StatusCanceled:
			s.CanceledCount++
		}
	}
	if s.ConfirmedCount > 0 {
		s.AverageTicket = s.Month.Div(decimal.NewFromInt(int64(s.ConfirmedCount))).Round(2)
	}
	return s
}
