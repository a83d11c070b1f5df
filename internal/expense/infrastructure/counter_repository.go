package infrastructure

import (
	"context"
	"database/sql"
	"fmt"

	"expensetracker/internal/expense/domain"
)

// CounterRepository maintains users.expense_logged alongside expense writes.
type CounterRepository struct {
	db *sql.DB
}

func NewCounterRepository(db *sql.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

func (r *CounterRepository) AddWithTx(ctx context.Context, userID string, delta int, dtx domain.Tx) error {
	tx, err := sqlTx(dtx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET expense_logged = expense_logged + $1, updated_at = now()
		WHERE id = $2
	`, delta, userID)
	if err != nil {
		return fmt.Errorf("could not update expense counter: %w", err)
	}
	return nil
}

// RecomputeAll rewrites every user's counter from the expense store,
// repairing any drift left by failed paired writes.
func (r *CounterRepository) RecomputeAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users u
		SET expense_logged = counted.total
		FROM (
			SELECT u2.id, COUNT(e.id) AS total
			FROM users u2
			LEFT JOIN expenses e ON e.owner_id = u2.id
			GROUP BY u2.id
		) counted
		WHERE counted.id = u.id AND u.expense_logged <> counted.total
	`)
	if err != nil {
		return fmt.Errorf("could not recompute expense counters: %w", err)
	}
	return nil
}
