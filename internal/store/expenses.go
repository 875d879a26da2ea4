package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

// ExpenseRepository stores business expenses.
type ExpenseRepository struct {
	db  *sql.DB
	loc *time.Location
}

// NewExpenseRepository wraps a database/sql handle.
func NewExpenseRepository(db *sql.DB, loc *time.Location) *ExpenseRepository {
	if loc == nil {
		loc = time.Local
	}
	return &ExpenseRepository{db: db, loc: loc}
}

// List returns expenses incurred in [from, to). A non-empty categories list
// restricts the result to those categories.
func (r *ExpenseRepository) List(ctx context.Context, from, to time.Time, categories []string) ([]scheduling.Expense, error) {
	if categories == nil {
		categories = []string{}
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, description, category, amount::text, incurred_on
		FROM expenses
		WHERE incurred_on >= $1::date AND incurred_on < $2::date
		  AND (cardinality($3::text[]) = 0 OR category = ANY($3::text[]))
		ORDER BY incurred_on ASC, created_at ASC`,
		from.Format(time.DateOnly), to.Format(time.DateOnly), pq.Array(categories))
	if err != nil {
		return nil, fmt.Errorf("store: list expenses: %w", err)
	}
	defer rows.Close()

	out := []scheduling.Expense{}
	for rows.Next() {
		var e scheduling.Expense
		var amount string
		if err := rows.Scan(&e.ID, &e.Description, &e.Category, &amount, &e.IncurredOn); err != nil {
			return nil, fmt.Errorf("store: scan expense: %w", err)
		}
		if e.Amount, err = parseMoney(amount); err != nil {
			return nil, err
		}
		e.IncurredOn = dateIn(e.IncurredOn, r.loc)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts an expense.
func (r *ExpenseRepository) Create(ctx context.Context, e scheduling.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, description, category, amount, incurred_on)
		VALUES ($1, $2, $3, $4::numeric, $5::date)`,
		e.ID, e.Description, e.Category, e.Amount.String(), e.IncurredOn.Format(time.DateOnly))
	if err != nil {
		return fmt.Errorf("store: create expense: %w", err)
	}
	return nil
}

// Categories lists the distinct categories in use.
func (r *ExpenseRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(array_agg(DISTINCT category ORDER BY category), '{}')
		FROM expenses WHERE category <> ''`).Scan(pq.Array(&categories))
	if err != nil {
		return nil, fmt.Errorf("store: expense categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}
