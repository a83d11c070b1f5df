package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expensetracker/internal/expense/domain"
	expenseErrors "expensetracker/internal/expense/errors"
)

type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// sqlTx unwraps the domain transaction handle back to *sql.Tx.
func sqlTx(tx domain.Tx) (*sql.Tx, error) {
	t, ok := tx.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("unexpected transaction type %T", tx)
	}
	return t, nil
}

const expenseColumns = `e.id, e.owner_id, e.name, e.amount, e.expense_date, e.category, e.payment_type, e.comment, e.created_at, e.updated_at`

// ownerColumns resolves the owner to its display-safe subset only.
const ownerColumns = `u.id, u.name, u.username, u.email`

func scanExpenseWithOwner(rows interface{ Scan(...interface{}) error }) (domain.Expense, error) {
	var e domain.Expense
	var owner domain.Owner
	err := rows.Scan(
		&e.ID, &e.OwnerID, &e.Name, &e.Amount, &e.ExpenseDate, &e.Category, &e.PaymentType, &e.Comment, &e.CreatedAt, &e.UpdatedAt,
		&owner.ID, &owner.Name, &owner.Username, &owner.Email,
	)
	if err != nil {
		return domain.Expense{}, err
	}
	e.Owner = &owner
	return e, nil
}

func (r *ExpenseRepository) SaveWithTx(ctx context.Context, expense *domain.Expense, dtx domain.Tx) error {
	tx, err := sqlTx(dtx)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO expenses (owner_id, name, amount, expense_date, category, payment_type, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		expense.OwnerID, expense.Name, expense.Amount, expense.ExpenseDate,
		expense.Category, expense.PaymentType, expense.Comment,
	).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not insert expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) SaveBatchWithTx(ctx context.Context, expenses []*domain.Expense, dtx domain.Tx) error {
	tx, err := sqlTx(dtx)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses (owner_id, name, amount, expense_date, category, payment_type, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`)
	if err != nil {
		return fmt.Errorf("could not prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, expense := range expenses {
		err := stmt.QueryRowContext(ctx,
			expense.OwnerID, expense.Name, expense.Amount, expense.ExpenseDate,
			expense.Category, expense.PaymentType, expense.Comment,
		).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
		if err != nil {
			return fmt.Errorf("could not insert expense batch row: %w", err)
		}
	}
	return nil
}

func (r *ExpenseRepository) FindByID(ctx context.Context, ownerID, expenseID string) (*domain.Expense, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM expenses e
		JOIN users u ON u.id = e.owner_id
		WHERE e.id = $1 AND e.owner_id = $2
	`, expenseColumns, ownerColumns)

	expense, err := scanExpenseWithOwner(r.db.QueryRowContext(ctx, query, expenseID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, expenseErrors.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("could not find expense: %w", err)
	}
	return &expense, nil
}

// buildPredicate assembles the WHERE clause for a list/stats query. The
// owner condition always comes first; optional conditions are appended
// conjunctively.
func buildPredicate(ownerID string, category string, startDate, endDate *time.Time) (string, []interface{}) {
	clause := "e.owner_id = $1"
	args := []interface{}{ownerID}

	if category != "" {
		args = append(args, category)
		clause += fmt.Sprintf(" AND e.category = $%d", len(args))
	}
	if startDate != nil {
		args = append(args, *startDate)
		clause += fmt.Sprintf(" AND e.expense_date >= $%d", len(args))
	}
	if endDate != nil {
		args = append(args, *endDate)
		clause += fmt.Sprintf(" AND e.expense_date <= $%d", len(args))
	}
	return clause, args
}

func (r *ExpenseRepository) FindPage(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.Expense, int, float64, error) {
	predicate, args := buildPredicate(ownerID, filter.Category, filter.StartDate, filter.EndDate)

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM expenses e
		JOIN users u ON u.id = e.owner_id
		WHERE %s
		ORDER BY e.%s %s
		LIMIT $%d OFFSET $%d
	`, expenseColumns, ownerColumns, predicate, filter.SortColumn(), direction, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("could not query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		expense, err := scanExpenseWithOwner(rows)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("could not scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, fmt.Errorf("could not read expenses: %w", err)
	}

	totalQuery := fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(SUM(e.amount), 0)
		FROM expenses e
		WHERE %s
	`, predicate)

	var totalCount int
	var totalAmount float64
	if err := r.db.QueryRowContext(ctx, totalQuery, args...).Scan(&totalCount, &totalAmount); err != nil {
		return nil, 0, 0, fmt.Errorf("could not count expenses: %w", err)
	}

	return expenses, totalCount, totalAmount, nil
}

func (r *ExpenseRepository) FindSince(ctx context.Context, ownerID string, since *time.Time) ([]domain.Expense, error) {
	predicate, args := buildPredicate(ownerID, "", since, nil)

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM expenses e
		JOIN users u ON u.id = e.owner_id
		WHERE %s
		ORDER BY e.expense_date DESC
	`, expenseColumns, ownerColumns, predicate)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		expense, err := scanExpenseWithOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	query := `
		UPDATE expenses
		SET name = $1, amount = $2, expense_date = $3, category = $4, payment_type = $5, comment = $6, updated_at = now()
		WHERE id = $7 AND owner_id = $8
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		expense.Name, expense.Amount, expense.ExpenseDate, expense.Category,
		expense.PaymentType, expense.Comment, expense.ID, expense.OwnerID,
	).Scan(&expense.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return expenseErrors.ErrExpenseNotFound
		}
		return fmt.Errorf("could not update expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) DeleteWithTx(ctx context.Context, ownerID, expenseID string, dtx domain.Tx) (bool, error) {
	tx, err := sqlTx(dtx)
	if err != nil {
		return false, err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND owner_id = $2`, expenseID, ownerID)
	if err != nil {
		return false, fmt.Errorf("could not delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not read delete result: %w", err)
	}
	return affected > 0, nil
}

func (r *ExpenseRepository) CategoryStats(ctx context.Context, ownerID string, startDate, endDate *time.Time) ([]domain.CategoryStat, error) {
	predicate, args := buildPredicate(ownerID, "", startDate, endDate)

	query := fmt.Sprintf(`
		SELECT e.category, COALESCE(SUM(e.amount), 0), COUNT(*), COALESCE(AVG(e.amount), 0)
		FROM expenses e
		WHERE %s
		GROUP BY e.category
		ORDER BY SUM(e.amount) DESC
	`, predicate)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query category stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.CategoryStat
	for rows.Next() {
		var stat domain.CategoryStat
		if err := rows.Scan(&stat.Category, &stat.TotalAmount, &stat.Count, &stat.AvgAmount); err != nil {
			return nil, fmt.Errorf("could not scan category stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (r *ExpenseRepository) OverallStats(ctx context.Context, ownerID string, startDate, endDate *time.Time) (domain.OverallStats, error) {
	predicate, args := buildPredicate(ownerID, "", startDate, endDate)

	// Aggregates over NUMERIC; COALESCE keeps the zero-match case a zero
	// struct instead of NULL scan failures.
	query := fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(SUM(e.amount), 0), COALESCE(AVG(e.amount), 0), COALESCE(MAX(e.amount), 0), COALESCE(MIN(e.amount), 0)
		FROM expenses e
		WHERE %s
	`, predicate)

	var stats domain.OverallStats
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalExpenses, &stats.TotalAmount, &stats.AvgAmount, &stats.MaxAmount, &stats.MinAmount,
	)
	if err != nil {
		return domain.OverallStats{}, fmt.Errorf("could not query overall stats: %w", err)
	}
	return stats, nil
}

func (r *ExpenseRepository) BeginTransaction() (domain.Tx, error) {
	return r.db.Begin()
}
