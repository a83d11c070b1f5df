package application

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"expensetracker/internal/expense/domain"
	expenseErrors "expensetracker/internal/expense/errors"
	"expensetracker/internal/expense/infrastructure"
)

// Helper function to compare floating-point values
func areEqualRounded(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func newTestService() (*ExpenseService, *infrastructure.MockExpenseRepository, *infrastructure.MockCounterRepository) {
	repo := infrastructure.NewMockExpenseRepository()
	counter := infrastructure.NewMockCounterRepository()
	return NewExpenseService(repo, counter), repo, counter
}

func validExpense(ownerID string) *domain.Expense {
	return &domain.Expense{
		OwnerID:     ownerID,
		Name:        "Coffee",
		Amount:      4.5,
		Category:    "Food",
		PaymentType: "Cash",
	}
}

func TestCreateExpense_RoundTrip(t *testing.T) {
	service, _, counter := newTestService()

	created, err := service.CreateExpense(context.Background(), validExpense("user-1"))
	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Coffee", created.Name)
	assert.Equal(t, 4.5, created.Amount)
	assert.Equal(t, "Food", created.Category)
	assert.Equal(t, "Cash", created.PaymentType)
	assert.WithinDuration(t, time.Now(), created.ExpenseDate, 2*time.Second)
	assert.Equal(t, 1, counter.Counts["user-1"])

	fetched, err := service.GetExpense(context.Background(), "user-1", created.ID)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Coffee", fetched.Name)
}

func TestCreateExpense_TrimsFields(t *testing.T) {
	service, _, _ := newTestService()

	expense := validExpense("user-1")
	expense.Name = "  Coffee  "
	expense.Category = " Food "
	expense.Comment = "  morning  "

	created, err := service.CreateExpense(context.Background(), expense)
	assert.NoError(t, err)
	assert.Equal(t, "Coffee", created.Name)
	assert.Equal(t, "Food", created.Category)
	assert.Equal(t, "morning", created.Comment)
}

func TestCreateExpense_RejectsInvalidAmount(t *testing.T) {
	service, repo, counter := newTestService()

	for _, amount := range []float64{0, -1, -0.01} {
		expense := validExpense("user-1")
		expense.Amount = amount
		_, err := service.CreateExpense(context.Background(), expense)
		assert.True(t, expenseErrors.IsValidationError(err), "amount %v must be rejected", amount)
	}
	assert.Empty(t, repo.Expenses)
	assert.Equal(t, 0, counter.Counts["user-1"])
}

func TestCreateExpense_RejectsMissingFields(t *testing.T) {
	service, _, _ := newTestService()

	cases := map[string]func(*domain.Expense){
		"name":         func(e *domain.Expense) { e.Name = "   " },
		"category":     func(e *domain.Expense) { e.Category = "" },
		"payment type": func(e *domain.Expense) { e.PaymentType = "" },
	}
	for field, mutate := range cases {
		expense := validExpense("user-1")
		mutate(expense)
		_, err := service.CreateExpense(context.Background(), expense)
		assert.True(t, expenseErrors.IsValidationError(err), "missing %s must be rejected", field)
	}
}

func TestCreateExpense_RejectsOverlongComment(t *testing.T) {
	service, repo, _ := newTestService()

	expense := validExpense("user-1")
	expense.Comment = strings.Repeat("x", 501)
	_, err := service.CreateExpense(context.Background(), expense)
	assert.True(t, expenseErrors.IsValidationError(err))
	assert.Empty(t, repo.Expenses)

	expense = validExpense("user-1")
	expense.Comment = strings.Repeat("x", 500)
	_, err = service.CreateExpense(context.Background(), expense)
	assert.NoError(t, err)
}

func TestCreateExpense_RejectsUnknownPaymentType(t *testing.T) {
	service, _, _ := newTestService()

	expense := validExpense("user-1")
	expense.PaymentType = "Paypal"
	_, err := service.CreateExpense(context.Background(), expense)
	assert.True(t, expenseErrors.IsValidationError(err))
}

func TestListExpenses_OwnershipScoping(t *testing.T) {
	service, _, _ := newTestService()

	for i := 0; i < 3; i++ {
		_, err := service.CreateExpense(context.Background(), validExpense("user-1"))
		assert.NoError(t, err)
	}
	other := validExpense("user-2")
	other.Name = "Taxi"
	_, err := service.CreateExpense(context.Background(), other)
	assert.NoError(t, err)

	expenses, totalCount, totalAmount, err := service.ListExpenses(context.Background(), "user-1", domain.ListFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 3, totalCount)
	assert.True(t, areEqualRounded(totalAmount, 13.5))
	for _, e := range expenses {
		assert.Equal(t, "user-1", e.OwnerID)
	}
}

func TestListExpenses_FilterAndSort(t *testing.T) {
	service, _, _ := newTestService()

	items := []struct {
		name     string
		amount   float64
		category string
		date     time.Time
	}{
		{"Lunch", 12, "Food", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"Bus", 2.5, "Transport", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
		{"Dinner", 30, "Food", time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, item := range items {
		expense := validExpense("user-1")
		expense.Name = item.name
		expense.Amount = item.amount
		expense.Category = item.category
		expense.ExpenseDate = item.date
		_, err := service.CreateExpense(context.Background(), expense)
		assert.NoError(t, err)
	}

	expenses, totalCount, totalAmount, err := service.ListExpenses(context.Background(), "user-1", domain.ListFilter{Category: "Food"})
	assert.NoError(t, err)
	assert.Equal(t, 2, totalCount)
	assert.True(t, areEqualRounded(totalAmount, 42))
	assert.Len(t, expenses, 2)

	expenses, _, _, err = service.ListExpenses(context.Background(), "user-1", domain.ListFilter{SortBy: "amount", SortDesc: false})
	assert.NoError(t, err)
	assert.Equal(t, "Bus", expenses[0].Name)
	assert.Equal(t, "Dinner", expenses[2].Name)

	start := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	_, totalCount, _, err = service.ListExpenses(context.Background(), "user-1", domain.ListFilter{StartDate: &start})
	assert.NoError(t, err)
	assert.Equal(t, 2, totalCount)
}

func TestListExpenses_PaginationCoversAllRecords(t *testing.T) {
	service, _, _ := newTestService()

	for i := 0; i < 7; i++ {
		expense := validExpense("user-1")
		expense.ExpenseDate = time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC)
		_, err := service.CreateExpense(context.Background(), expense)
		assert.NoError(t, err)
	}

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		expenses, totalCount, _, err := service.ListExpenses(context.Background(), "user-1", domain.ListFilter{Page: page, Limit: 3})
		assert.NoError(t, err)
		assert.Equal(t, 7, totalCount)
		assert.LessOrEqual(t, len(expenses), 3)
		for _, e := range expenses {
			assert.False(t, seen[e.ID], "expense %s returned twice", e.ID)
			seen[e.ID] = true
		}
	}
	assert.Len(t, seen, 7)
}

func TestListExpenses_NormalizesBadPagination(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.CreateExpense(context.Background(), validExpense("user-1"))
	assert.NoError(t, err)

	expenses, totalCount, _, err := service.ListExpenses(context.Background(), "user-1", domain.ListFilter{Page: -5, Limit: -1})
	assert.NoError(t, err)
	assert.Equal(t, 1, totalCount)
	assert.Len(t, expenses, 1)
}

func TestUpdateExpense_PartialUpdate(t *testing.T) {
	service, _, _ := newTestService()

	created, err := service.CreateExpense(context.Background(), validExpense("user-1"))
	assert.NoError(t, err)

	newAmount := 9.99
	updated, err := service.UpdateExpense(context.Background(), "user-1", created.ID, domain.ExpenseUpdate{Amount: &newAmount})
	assert.NoError(t, err)
	assert.Equal(t, 9.99, updated.Amount)
	assert.Equal(t, "Coffee", updated.Name)
}

func TestUpdateExpense_RejectsInvalidAmount(t *testing.T) {
	service, _, _ := newTestService()

	created, err := service.CreateExpense(context.Background(), validExpense("user-1"))
	assert.NoError(t, err)

	badAmount := -3.0
	_, err = service.UpdateExpense(context.Background(), "user-1", created.ID, domain.ExpenseUpdate{Amount: &badAmount})
	assert.True(t, expenseErrors.IsValidationError(err))

	fetched, err := service.GetExpense(context.Background(), "user-1", created.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4.5, fetched.Amount)
}

func TestUpdateExpense_NotFoundForForeignOwner(t *testing.T) {
	service, _, _ := newTestService()

	created, err := service.CreateExpense(context.Background(), validExpense("user-1"))
	assert.NoError(t, err)

	newName := "Hijack"
	_, err = service.UpdateExpense(context.Background(), "user-2", created.ID, domain.ExpenseUpdate{Name: &newName})
	assert.True(t, errors.Is(err, expenseErrors.ErrExpenseNotFound))
}

func TestDeleteExpense_PairsCounter(t *testing.T) {
	service, _, counter := newTestService()

	created, err := service.CreateExpense(context.Background(), validExpense("user-1"))
	assert.NoError(t, err)
	assert.Equal(t, 1, counter.Counts["user-1"])

	err = service.DeleteExpense(context.Background(), "user-1", created.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, counter.Counts["user-1"])

	_, err = service.GetExpense(context.Background(), "user-1", created.ID)
	assert.True(t, errors.Is(err, expenseErrors.ErrExpenseNotFound))
}

func TestDeleteExpense_NotFoundLeavesCounterUntouched(t *testing.T) {
	service, _, counter := newTestService()

	created, err := service.CreateExpense(context.Background(), validExpense("user-1"))
	assert.NoError(t, err)

	err = service.DeleteExpense(context.Background(), "user-2", created.ID)
	assert.True(t, errors.Is(err, expenseErrors.ErrExpenseNotFound))
	assert.Equal(t, 1, counter.Counts["user-1"])
	assert.Equal(t, 0, counter.Counts["user-2"])

	err = service.DeleteExpense(context.Background(), "user-1", "00000000-0000-0000-0000-999999999999")
	assert.True(t, errors.Is(err, expenseErrors.ErrExpenseNotFound))
	assert.Equal(t, 1, counter.Counts["user-1"])
}

func TestDeleteExpense_MalformedID(t *testing.T) {
	service, _, counter := newTestService()

	err := service.DeleteExpense(context.Background(), "user-1", "not-a-uuid")
	assert.True(t, expenseErrors.IsValidationError(err))
	assert.Equal(t, 0, counter.Counts["user-1"])
}

func TestImportExpenses_AllOrNothing(t *testing.T) {
	service, repo, counter := newTestService()

	batch := []*domain.Expense{
		{Name: "A", Amount: 10, Category: "Food", PaymentType: "Cash"},
		{Name: "B", Amount: -5, Category: "Food", PaymentType: "Card"},
		{Name: "C", Amount: 3, Category: "Transport", PaymentType: "UPI"},
	}
	_, err := service.ImportExpenses(context.Background(), "user-1", batch)
	assert.True(t, expenseErrors.IsValidationErrors(err))

	var validationErrors *expenseErrors.ValidationErrors
	assert.True(t, errors.As(err, &validationErrors))
	assert.Len(t, validationErrors.Errors, 1)
	assert.Contains(t, validationErrors.Errors[0].Error(), "expense 2")

	assert.Empty(t, repo.Expenses)
	assert.Equal(t, 0, counter.Counts["user-1"])
}

func TestImportExpenses_Success(t *testing.T) {
	service, repo, counter := newTestService()

	batch := []*domain.Expense{
		{Name: "A", Amount: 10, Category: "Food", PaymentType: "Cash"},
		{Name: "B", Amount: 5, Category: "Food", PaymentType: "Card"},
		{Name: "C", Amount: 3, Category: "Transport", PaymentType: "UPI"},
	}
	count, err := service.ImportExpenses(context.Background(), "user-1", batch)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, repo.Expenses, 3)
	assert.Equal(t, 3, counter.Counts["user-1"])
}

func TestImportExpenses_EmptyBatch(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.ImportExpenses(context.Background(), "user-1", nil)
	assert.True(t, expenseErrors.IsValidationError(err))
}

func TestGetStats_CategoryTotalsMatchOverall(t *testing.T) {
	service, _, _ := newTestService()

	items := []struct {
		amount   float64
		category string
	}{
		{10.50, "Food"},
		{20.25, "Food"},
		{5.75, "Transport"},
		{100, "Rent"},
	}
	for _, item := range items {
		expense := validExpense("user-1")
		expense.Amount = item.amount
		expense.Category = item.category
		_, err := service.CreateExpense(context.Background(), expense)
		assert.NoError(t, err)
	}

	stats, err := service.GetStats(context.Background(), "user-1", nil, nil)
	assert.NoError(t, err)

	var categorySum float64
	for _, stat := range stats.CategoryStats {
		categorySum += stat.TotalAmount
	}
	assert.True(t, areEqualRounded(categorySum, stats.OverallStats.TotalAmount))
	assert.Equal(t, 4, stats.OverallStats.TotalExpenses)
	assert.True(t, areEqualRounded(stats.OverallStats.TotalAmount, 136.5))
	assert.True(t, areEqualRounded(stats.OverallStats.AvgAmount, 34.125))
	assert.True(t, areEqualRounded(stats.OverallStats.MaxAmount, 100))
	assert.True(t, areEqualRounded(stats.OverallStats.MinAmount, 5.75))

	// Breakdown ordered by total descending
	assert.Equal(t, "Rent", stats.CategoryStats[0].Category)
	assert.Equal(t, "Food", stats.CategoryStats[1].Category)
	assert.Equal(t, 2, stats.CategoryStats[1].Count)
	assert.True(t, areEqualRounded(stats.CategoryStats[1].AvgAmount, 15.375))
}

func TestGetStats_EmptyIsZeroedNotError(t *testing.T) {
	service, _, _ := newTestService()

	stats, err := service.GetStats(context.Background(), "user-1", nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, stats.CategoryStats)
	assert.Equal(t, domain.OverallStats{}, stats.OverallStats)
}

func TestGetStats_DateRange(t *testing.T) {
	service, _, _ := newTestService()

	dates := []time.Time{
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	for i, date := range dates {
		expense := validExpense("user-1")
		expense.Amount = float64(i+1) * 10
		expense.ExpenseDate = date
		_, err := service.CreateExpense(context.Background(), expense)
		assert.NoError(t, err)
	}

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	stats, err := service.GetStats(context.Background(), "user-1", &start, &end)
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.OverallStats.TotalExpenses)
	assert.True(t, areEqualRounded(stats.OverallStats.TotalAmount, 20))
}

func TestGetDashboardExpenses_TimeFilter(t *testing.T) {
	service, _, _ := newTestService()

	recent := validExpense("user-1")
	recent.ExpenseDate = time.Now().AddDate(0, 0, -2)
	_, err := service.CreateExpense(context.Background(), recent)
	assert.NoError(t, err)

	old := validExpense("user-1")
	old.ExpenseDate = time.Now().AddDate(0, 0, -60)
	_, err = service.CreateExpense(context.Background(), old)
	assert.NoError(t, err)

	expenses, err := service.GetDashboardExpenses(context.Background(), "user-1", "week")
	assert.NoError(t, err)
	assert.Len(t, expenses, 1)

	expenses, err = service.GetDashboardExpenses(context.Background(), "user-1", "all")
	assert.NoError(t, err)
	assert.Len(t, expenses, 2)

	_, err = service.GetDashboardExpenses(context.Background(), "user-1", "decade")
	assert.True(t, expenseErrors.IsValidationError(err))
}
