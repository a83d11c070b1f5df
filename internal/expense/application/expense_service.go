package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/expense/domain"
	expenseErrors "expensetracker/internal/expense/errors"
)

// storeTimeout bounds every interaction with the backing store so a
// stalled database cannot hang a caller indefinitely.
const storeTimeout = 5 * time.Second

type ExpenseService struct {
	repo    domain.ExpenseRepository
	counter domain.CounterRepository
	now     func() time.Time
}

func NewExpenseService(repo domain.ExpenseRepository, counter domain.CounterRepository) *ExpenseService {
	return &ExpenseService{repo: repo, counter: counter, now: time.Now}
}

func (s *ExpenseService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

func validateID(expenseID string) error {
	if _, err := uuid.Parse(expenseID); err != nil {
		return expenseErrors.ErrInvalidExpenseID
	}
	return nil
}

// CreateExpense validates and persists one expense and increments the
// owner's counter in the same transaction.
func (s *ExpenseService) CreateExpense(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	expense.Normalize(s.now())
	if err := expense.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.repo.BeginTransaction()
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := s.repo.SaveWithTx(ctx, expense, tx); err != nil {
		safeRollback(tx)
		return nil, err
	}
	if err := s.counter.AddWithTx(ctx, expense.OwnerID, 1, tx); err != nil {
		safeRollback(tx)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit expense: %w", err)
	}

	return s.repo.FindByID(ctx, expense.OwnerID, expense.ID)
}

func (s *ExpenseService) GetExpense(ctx context.Context, ownerID, expenseID string) (*domain.Expense, error) {
	if err := validateID(expenseID); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.repo.FindByID(ctx, ownerID, expenseID)
}

// ListExpenses returns one page of the owner's expenses plus the unpaged
// total count and summed amount for the same predicate.
func (s *ExpenseService) ListExpenses(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.Expense, int, float64, error) {
	filter.Normalize()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	expenses, totalCount, totalAmount, err := s.repo.FindPage(ctx, ownerID, filter)
	if err != nil {
		return nil, 0, 0, err
	}
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	return expenses, totalCount, totalAmount, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, ownerID, expenseID string, update domain.ExpenseUpdate) (*domain.Expense, error) {
	if err := validateID(expenseID); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	expense, err := s.repo.FindByID(ctx, ownerID, expenseID)
	if err != nil {
		return nil, err
	}

	update.Apply(expense)
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense removes the expense and decrements the owner's counter in
// one transaction. A foreign or unknown ID yields not-found and leaves the
// counter untouched.
func (s *ExpenseService) DeleteExpense(ctx context.Context, ownerID, expenseID string) error {
	if err := validateID(expenseID); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.repo.BeginTransaction()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	deleted, err := s.repo.DeleteWithTx(ctx, ownerID, expenseID, tx)
	if err != nil {
		safeRollback(tx)
		return err
	}
	if !deleted {
		safeRollback(tx)
		return expenseErrors.ErrExpenseNotFound
	}
	if err := s.counter.AddWithTx(ctx, ownerID, -1, tx); err != nil {
		safeRollback(tx)
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit delete: %w", err)
	}
	return nil
}

// ImportExpenses inserts a batch all-or-nothing. Every payload is
// validated up front; one bad record rejects the whole batch with indexed
// errors and zero inserts.
func (s *ExpenseService) ImportExpenses(ctx context.Context, ownerID string, expenses []*domain.Expense) (int, error) {
	if len(expenses) == 0 {
		return 0, expenseErrors.NewValidationError("Expenses array is required")
	}

	validationErrors := &expenseErrors.ValidationErrors{}
	for i, expense := range expenses {
		expense.OwnerID = ownerID
		expense.Normalize(s.now())
		if err := expense.Validate(); err != nil {
			validationErrors.Add(expenseErrors.NewIndexedValidationError(i+1, err.Error()))
		}
	}
	if len(validationErrors.Errors) > 0 {
		return 0, validationErrors
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.repo.BeginTransaction()
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := s.repo.SaveBatchWithTx(ctx, expenses, tx); err != nil {
		safeRollback(tx)
		return 0, err
	}
	if err := s.counter.AddWithTx(ctx, ownerID, len(expenses), tx); err != nil {
		safeRollback(tx)
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit import: %w", err)
	}
	return len(expenses), nil
}

// GetStats computes the per-category breakdown and overall summary for the
// owner over an optional date range. The category filter never applies
// here; the breakdown always spans all categories.
func (s *ExpenseService) GetStats(ctx context.Context, ownerID string, startDate, endDate *time.Time) (*domain.ExpenseStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	categoryStats, err := s.repo.CategoryStats(ctx, ownerID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if categoryStats == nil {
		categoryStats = []domain.CategoryStat{}
	}

	overall, err := s.repo.OverallStats(ctx, ownerID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	return &domain.ExpenseStats{CategoryStats: categoryStats, OverallStats: overall}, nil
}

// GetDashboardExpenses returns the owner's expenses inside a rolling time
// window, newest first, unpaged.
func (s *ExpenseService) GetDashboardExpenses(ctx context.Context, ownerID, timeFilter string) ([]domain.Expense, error) {
	var since *time.Time
	now := s.now()
	switch timeFilter {
	case "week":
		t := now.AddDate(0, 0, -7)
		since = &t
	case "month":
		t := now.AddDate(0, 0, -30)
		since = &t
	case "year":
		t := now.AddDate(0, 0, -365)
		since = &t
	case "", "all":
	default:
		return nil, expenseErrors.NewValidationError("Invalid time filter")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	expenses, err := s.repo.FindSince(ctx, ownerID, since)
	if err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	return expenses, nil
}

// ReconcileCounters recomputes every user's expense_logged from the store.
func (s *ExpenseService) ReconcileCounters(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	return s.counter.RecomputeAll(ctx)
}

func safeRollback(tx domain.Tx) {
	if err := tx.Rollback(); err != nil {
		log.Printf("Error during transaction rollback: %v", err)
	}
}
