package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/salon-dashboard/internal/scheduling"
)

func TestExpenseRepositoryList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewExpenseRepository(db, salonTZ)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, salonTZ)
	to := from.AddDate(0, 1, 0)

	mock.ExpectQuery(`FROM expenses\s+WHERE incurred_on >= \$1::date AND incurred_on < \$2::date`).
		WithArgs("2024-03-01", "2024-04-01", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "category", "amount", "incurred_on"}).
			AddRow("e1", "Aluguel", "rent", "1200.00", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)).
			AddRow("e2", "Shampoo", "supplies", "89.90", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)))

	expenses, err := repo.List(context.Background(), from, to, []string{"rent", "supplies"})

	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.True(t, decimal.RequireFromString("89.9").Equal(expenses[1].Amount))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, salonTZ), expenses[0].IncurredOn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositoryListEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewExpenseRepository(db, salonTZ)
	mock.ExpectQuery(`FROM expenses`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "category", "amount", "incurred_on"}))

	expenses, err := repo.List(context.Background(), time.Now(), time.Now(), nil)

	require.NoError(t, err)
	assert.NotNil(t, expenses)
	assert.Empty(t, expenses)
}

func TestExpenseRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewExpenseRepository(db, salonTZ)
	e := scheduling.Expense{
		ID:          "e1",
		Description: "Aluguel",
		Category:    "rent",
		Amount:      decimal.RequireFromString("1200.50"),
		IncurredOn:  time.Date(2024, 3, 5, 0, 0, 0, 0, salonTZ),
	}

	mock.ExpectExec(`INSERT INTO expenses`).
		WithArgs("e1", "Aluguel", "rent", "1200.5", "2024-03-05").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositoryCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewExpenseRepository(db, salonTZ)
	mock.ExpectQuery(`SELECT COALESCE\(array_agg\(DISTINCT category ORDER BY category\), '\{\}'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"categories"}).AddRow([]byte("{rent,supplies}")))

	categories, err := repo.Categories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"rent", "supplies"}, categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}
