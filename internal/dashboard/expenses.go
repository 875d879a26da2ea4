package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

var errNoExpenseSource = errors.New("dashboard: expense source not configured")

// ExpenseRequest records money spent on a given date.
type ExpenseRequest struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	IncurredOn  time.Time       `json:"incurred_on"`
}

// Expenses lists expenses incurred on dates in [from, to), optionally
// restricted to categories.
func (s *Service) Expenses(ctx context.Context, from, to time.Time, categories []string) ([]scheduling.Expense, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: to must be after from", ErrInvalidRequest)
	}
	if s.expenses == nil {
		return []scheduling.Expense{}, nil
	}
	expenses, err := s.expenses.List(ctx, from, to, categories)
	if err != nil {
		return nil, fmt.Errorf("dashboard: load expenses: %w", err)
	}
	return nonNil(expenses), nil
}

// RecordExpense stores an expense and drops cached finance views.
func (s *Service) RecordExpense(ctx context.Context, req ExpenseRequest) (scheduling.Expense, error) {
	ctx, span := tracer.Start(ctx, "dashboard.record_expense")
	defer span.End()

	if s.expenses == nil {
		return scheduling.Expense{}, errNoExpenseSource
	}
	desc := strings.TrimSpace(req.Description)
	switch {
	case desc == "":
		return scheduling.Expense{}, fmt.Errorf("%w: description is required", ErrInvalidRequest)
	case !req.Amount.IsPositive():
		return scheduling.Expense{}, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	case req.IncurredOn.IsZero():
		return scheduling.Expense{}, fmt.Errorf("%w: incurred_on is required", ErrInvalidRequest)
	}

	expense := scheduling.Expense{
		ID:          s.newID(),
		Description: desc,
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
		Amount:      req.Amount,
		IncurredOn:  scheduling.StartOfDay(req.IncurredOn.In(s.settings.Location)),
	}
	span.SetAttributes(attribute.String("salon.expense_category", expense.Category))
	if err := s.expenses.Create(ctx, expense); err != nil {
		span.RecordError(err)
		return scheduling.Expense{}, fmt.Errorf("dashboard: record expense: %w", err)
	}
	s.invalidate(ctx)
	s.logger.Info("expense recorded", "expense_id", expense.ID, "category", expense.Category, "amount", expense.Amount.String())
	return expense, nil
}

// ExpenseCategories lists the categories already in use.
func (s *Service) ExpenseCategories(ctx context.Context) ([]string, error) {
	if s.expenses == nil {
		return []string{}, nil
	}
	categories, err := s.expenses.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: expense categories: %w", err)
	}
	return nonNil(categories), nil
}
