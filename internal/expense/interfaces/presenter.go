package interfaces

import (
	"time"

	"expensetracker/internal/expense/domain"
)

// expenseResponse is the canonical wire shape with stored field names.
type expenseResponse struct {
	ID          string        `json:"_id"`
	Name        string        `json:"name"`
	Amount      float64       `json:"amount"`
	ExpenseDate time.Time     `json:"expenseDate"`
	Category    string        `json:"category"`
	PaymentType string        `json:"paymentType"`
	Comment     string        `json:"comment"`
	Owner       *domain.Owner `json:"owner"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// legacyExpenseResponse remaps stored names to the field aliases the
// dashboard client expects. Purely a boundary projection; these names
// never reach the schema or the aggregation queries.
type legacyExpenseResponse struct {
	ID              string        `json:"_id"`
	Name            string        `json:"name"`
	Amount          float64       `json:"amount"`
	ExpenseDate     string        `json:"expense_date"`
	ExpenseCategory string        `json:"expense_category"`
	Payment         string        `json:"payment"`
	Comment         string        `json:"comment"`
	Owner           *domain.Owner `json:"owner"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func toExpenseResponse(e domain.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Name:        e.Name,
		Amount:      e.Amount,
		ExpenseDate: e.ExpenseDate,
		Category:    e.Category,
		PaymentType: e.PaymentType,
		Comment:     e.Comment,
		Owner:       e.Owner,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toLegacyExpenseResponse(e domain.Expense) legacyExpenseResponse {
	return legacyExpenseResponse{
		ID:              e.ID,
		Name:            e.Name,
		Amount:          e.Amount,
		ExpenseDate:     e.ExpenseDate.Format("Mon Jan 02 2006"),
		ExpenseCategory: e.Category,
		Payment:         e.PaymentType,
		Comment:         e.Comment,
		Owner:           e.Owner,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toLegacyExpenseResponses(expenses []domain.Expense) []legacyExpenseResponse {
	responses := make([]legacyExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		responses = append(responses, toLegacyExpenseResponse(e))
	}
	return responses
}

func toExpenseResponses(expenses []domain.Expense) []expenseResponse {
	responses := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		responses = append(responses, toExpenseResponse(e))
	}
	return responses
}
