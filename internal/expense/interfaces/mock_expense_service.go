package interfaces

import (
	"context"
	"time"

	"expensetracker/internal/expense/domain"
)

// MockExpenseService is a hand-written test double for ExpenseServiceInterface.
type MockExpenseService struct {
	CreateFunc    func(ctx context.Context, expense *domain.Expense) (*domain.Expense, error)
	GetFunc       func(ctx context.Context, ownerID, expenseID string) (*domain.Expense, error)
	ListFunc      func(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.Expense, int, float64, error)
	UpdateFunc    func(ctx context.Context, ownerID, expenseID string, update domain.ExpenseUpdate) (*domain.Expense, error)
	DeleteFunc    func(ctx context.Context, ownerID, expenseID string) error
	ImportFunc    func(ctx context.Context, ownerID string, expenses []*domain.Expense) (int, error)
	StatsFunc     func(ctx context.Context, ownerID string, startDate, endDate *time.Time) (*domain.ExpenseStats, error)
	DashboardFunc func(ctx context.Context, ownerID, timeFilter string) ([]domain.Expense, error)

	LastFilter domain.ListFilter
}

func (m *MockExpenseService) CreateExpense(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, expense)
	}
	return expense, nil
}

func (m *MockExpenseService) GetExpense(ctx context.Context, ownerID, expenseID string) (*domain.Expense, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ownerID, expenseID)
	}
	return &domain.Expense{ID: expenseID, OwnerID: ownerID}, nil
}

func (m *MockExpenseService) ListExpenses(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.Expense, int, float64, error) {
	m.LastFilter = filter
	if m.ListFunc != nil {
		return m.ListFunc(ctx, ownerID, filter)
	}
	return []domain.Expense{}, 0, 0, nil
}

func (m *MockExpenseService) UpdateExpense(ctx context.Context, ownerID, expenseID string, update domain.ExpenseUpdate) (*domain.Expense, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, ownerID, expenseID, update)
	}
	return &domain.Expense{ID: expenseID, OwnerID: ownerID}, nil
}

func (m *MockExpenseService) DeleteExpense(ctx context.Context, ownerID, expenseID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, ownerID, expenseID)
	}
	return nil
}

func (m *MockExpenseService) ImportExpenses(ctx context.Context, ownerID string, expenses []*domain.Expense) (int, error) {
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, ownerID, expenses)
	}
	return len(expenses), nil
}

func (m *MockExpenseService) GetStats(ctx context.Context, ownerID string, startDate, endDate *time.Time) (*domain.ExpenseStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, ownerID, startDate, endDate)
	}
	return &domain.ExpenseStats{CategoryStats: []domain.CategoryStat{}}, nil
}

func (m *MockExpenseService) GetDashboardExpenses(ctx context.Context, ownerID, timeFilter string) ([]domain.Expense, error) {
	if m.DashboardFunc != nil {
		return m.DashboardFunc(ctx, ownerID, timeFilter)
	}
	return []domain.Expense{}, nil
}
