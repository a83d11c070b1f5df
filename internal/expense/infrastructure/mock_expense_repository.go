package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"time"

	"expensetracker/internal/expense/domain"
	expenseErrors "expensetracker/internal/expense/errors"
)

// MockTx is a no-op transaction handle for in-memory tests.
type MockTx struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTx) Commit() error   { t.Committed = true; return nil }
func (t *MockTx) Rollback() error { t.RolledBack = true; return nil }

// MockExpenseRepository is an in-memory ExpenseRepository used by the
// service tests.
type MockExpenseRepository struct {
	Expenses []domain.Expense
	Owners   map[string]domain.Owner
	nextID   int
}

func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{Owners: map[string]domain.Owner{}}
}

func (m *MockExpenseRepository) BeginTransaction() (domain.Tx, error) {
	return &MockTx{}, nil
}

func (m *MockExpenseRepository) assignID() string {
	m.nextID++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", m.nextID)
}

func (m *MockExpenseRepository) resolveOwner(e *domain.Expense) {
	if owner, ok := m.Owners[e.OwnerID]; ok {
		e.Owner = &owner
	}
}

func (m *MockExpenseRepository) SaveWithTx(_ context.Context, expense *domain.Expense, _ domain.Tx) error {
	expense.ID = m.assignID()
	expense.CreatedAt = time.Now()
	expense.UpdatedAt = expense.CreatedAt
	m.Expenses = append(m.Expenses, *expense)
	return nil
}

func (m *MockExpenseRepository) SaveBatchWithTx(ctx context.Context, expenses []*domain.Expense, tx domain.Tx) error {
	for _, expense := range expenses {
		if err := m.SaveWithTx(ctx, expense, tx); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockExpenseRepository) FindByID(_ context.Context, ownerID, expenseID string) (*domain.Expense, error) {
	for _, e := range m.Expenses {
		if e.ID == expenseID && e.OwnerID == ownerID {
			found := e
			m.resolveOwner(&found)
			return &found, nil
		}
	}
	return nil, expenseErrors.ErrExpenseNotFound
}

func (m *MockExpenseRepository) matching(ownerID, category string, startDate, endDate *time.Time) []domain.Expense {
	var matched []domain.Expense
	for _, e := range m.Expenses {
		if e.OwnerID != ownerID {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		if startDate != nil && e.ExpenseDate.Before(*startDate) {
			continue
		}
		if endDate != nil && e.ExpenseDate.After(*endDate) {
			continue
		}
		matched = append(matched, e)
	}
	return matched
}

func (m *MockExpenseRepository) FindPage(_ context.Context, ownerID string, filter domain.ListFilter) ([]domain.Expense, int, float64, error) {
	matched := m.matching(ownerID, filter.Category, filter.StartDate, filter.EndDate)

	less := func(a, b domain.Expense) bool {
		switch filter.SortColumn() {
		case "amount":
			return a.Amount < b.Amount
		case "name":
			return a.Name < b.Name
		case "category":
			return a.Category < b.Category
		case "payment_type":
			return a.PaymentType < b.PaymentType
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ExpenseDate.Before(b.ExpenseDate)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if filter.SortDesc {
			return less(matched[j], matched[i])
		}
		return less(matched[i], matched[j])
	})

	totalCount := len(matched)
	var totalAmount float64
	for _, e := range matched {
		totalAmount += e.Amount
	}

	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]domain.Expense, 0, end-start)
	for _, e := range matched[start:end] {
		m.resolveOwner(&e)
		page = append(page, e)
	}
	return page, totalCount, totalAmount, nil
}

func (m *MockExpenseRepository) FindSince(_ context.Context, ownerID string, since *time.Time) ([]domain.Expense, error) {
	matched := m.matching(ownerID, "", since, nil)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[j].ExpenseDate.Before(matched[i].ExpenseDate)
	})
	for i := range matched {
		m.resolveOwner(&matched[i])
	}
	return matched, nil
}

func (m *MockExpenseRepository) Update(_ context.Context, expense *domain.Expense) error {
	for i, e := range m.Expenses {
		if e.ID == expense.ID && e.OwnerID == expense.OwnerID {
			expense.UpdatedAt = time.Now()
			m.Expenses[i] = *expense
			return nil
		}
	}
	return expenseErrors.ErrExpenseNotFound
}

func (m *MockExpenseRepository) DeleteWithTx(_ context.Context, ownerID, expenseID string, _ domain.Tx) (bool, error) {
	for i, e := range m.Expenses {
		if e.ID == expenseID && e.OwnerID == ownerID {
			m.Expenses = append(m.Expenses[:i], m.Expenses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockExpenseRepository) CategoryStats(_ context.Context, ownerID string, startDate, endDate *time.Time) ([]domain.CategoryStat, error) {
	matched := m.matching(ownerID, "", startDate, endDate)

	byCategory := map[string]*domain.CategoryStat{}
	var order []string
	for _, e := range matched {
		stat, ok := byCategory[e.Category]
		if !ok {
			stat = &domain.CategoryStat{Category: e.Category}
			byCategory[e.Category] = stat
			order = append(order, e.Category)
		}
		stat.TotalAmount += e.Amount
		stat.Count++
	}

	stats := make([]domain.CategoryStat, 0, len(order))
	for _, category := range order {
		stat := byCategory[category]
		stat.AvgAmount = stat.TotalAmount / float64(stat.Count)
		stats = append(stats, *stat)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalAmount > stats[j].TotalAmount
	})
	return stats, nil
}

func (m *MockExpenseRepository) OverallStats(_ context.Context, ownerID string, startDate, endDate *time.Time) (domain.OverallStats, error) {
	matched := m.matching(ownerID, "", startDate, endDate)
	var stats domain.OverallStats
	if len(matched) == 0 {
		return stats, nil
	}

	stats.TotalExpenses = len(matched)
	stats.MinAmount = matched[0].Amount
	stats.MaxAmount = matched[0].Amount
	for _, e := range matched {
		stats.TotalAmount += e.Amount
		if e.Amount > stats.MaxAmount {
			stats.MaxAmount = e.Amount
		}
		if e.Amount < stats.MinAmount {
			stats.MinAmount = e.Amount
		}
	}
	stats.AvgAmount = stats.TotalAmount / float64(stats.TotalExpenses)
	return stats, nil
}

// MockCounterRepository records counter deltas per user.
type MockCounterRepository struct {
	Counts     map[string]int
	Recomputed int
}

func NewMockCounterRepository() *MockCounterRepository {
	return &MockCounterRepository{Counts: map[string]int{}}
}

func (m *MockCounterRepository) AddWithTx(_ context.Context, userID string, delta int, _ domain.Tx) error {
	m.Counts[userID] += delta
	return nil
}

func (m *MockCounterRepository) RecomputeAll(_ context.Context) error {
	m.Recomputed++
	return nil
}
