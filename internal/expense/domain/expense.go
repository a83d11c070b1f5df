package domain

import (
	"context"
	"strings"
	"time"

	expenseErrors "expensetracker/internal/expense/errors"
)

// Tx is the unit-of-work handle shared by the expense and counter
// repositories so paired writes commit or roll back together. *sql.Tx
// satisfies it.
type Tx interface {
	Commit() error
	Rollback() error
}

// PaymentTypes is the closed set of accepted payment types.
var PaymentTypes = []string{"Cash", "Card", "UPI", "Net Banking", "Other"}

func IsValidPaymentType(paymentType string) bool {
	for _, pt := range PaymentTypes {
		if pt == paymentType {
			return true
		}
	}
	return false
}

// Owner is the display-safe subset of the owning user resolved onto
// query results. Password and token fields are never part of it.
type Owner struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Expense struct {
	ID          string
	OwnerID     string
	Name        string
	Amount      float64
	ExpenseDate time.Time
	Category    string
	PaymentType string
	Comment     string
	Owner       *Owner
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const maxCommentLength = 500

// Normalize trims user-supplied fields and defaults the expense date.
func (e *Expense) Normalize(now time.Time) {
	e.Name = strings.TrimSpace(e.Name)
	e.Category = strings.TrimSpace(e.Category)
	e.PaymentType = strings.TrimSpace(e.PaymentType)
	e.Comment = strings.TrimSpace(e.Comment)
	if e.ExpenseDate.IsZero() {
		e.ExpenseDate = now
	}
}

func (e *Expense) Validate() error {
	if e.Name == "" {
		return expenseErrors.NewValidationError("Name is required")
	}
	if e.Amount <= 0 {
		return expenseErrors.NewValidationError("Amount must be greater than 0")
	}
	if e.Category == "" {
		return expenseErrors.NewValidationError("Category is required")
	}
	if e.PaymentType == "" {
		return expenseErrors.NewValidationError("Payment type is required")
	}
	if !IsValidPaymentType(e.PaymentType) {
		return expenseErrors.ErrInvalidPaymentType
	}
	if len(e.Comment) > maxCommentLength {
		return expenseErrors.NewValidationError("Comment must be of length less than 500")
	}
	return nil
}

// ExpenseUpdate carries a partial edit; nil fields are left untouched.
type ExpenseUpdate struct {
	Name        *string
	Amount      *float64
	ExpenseDate *time.Time
	Category    *string
	PaymentType *string
	Comment     *string
}

// Apply folds the update into the expense. The result must still satisfy
// Validate before it is persisted.
func (u ExpenseUpdate) Apply(e *Expense) {
	if u.Name != nil {
		e.Name = strings.TrimSpace(*u.Name)
	}
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	if u.ExpenseDate != nil {
		e.ExpenseDate = *u.ExpenseDate
	}
	if u.Category != nil {
		e.Category = strings.TrimSpace(*u.Category)
	}
	if u.PaymentType != nil {
		e.PaymentType = strings.TrimSpace(*u.PaymentType)
	}
	if u.Comment != nil {
		e.Comment = strings.TrimSpace(*u.Comment)
	}
}

type ExpenseRepository interface {
	SaveWithTx(ctx context.Context, expense *Expense, tx Tx) error
	SaveBatchWithTx(ctx context.Context, expenses []*Expense, tx Tx) error
	FindByID(ctx context.Context, ownerID, expenseID string) (*Expense, error)
	FindPage(ctx context.Context, ownerID string, filter ListFilter) ([]Expense, int, float64, error)
	FindSince(ctx context.Context, ownerID string, since *time.Time) ([]Expense, error)
	Update(ctx context.Context, expense *Expense) error
	DeleteWithTx(ctx context.Context, ownerID, expenseID string, tx Tx) (bool, error)
	CategoryStats(ctx context.Context, ownerID string, startDate, endDate *time.Time) ([]CategoryStat, error)
	OverallStats(ctx context.Context, ownerID string, startDate, endDate *time.Time) (OverallStats, error)
	BeginTransaction() (Tx, error)
}

// CounterRepository maintains the owning user's running expense counter.
// All mutations run inside the same transaction as the primary expense
// write so the counter can never be paired with a half-applied change.
type CounterRepository interface {
	AddWithTx(ctx context.Context, userID string, delta int, tx Tx) error
	RecomputeAll(ctx context.Context) error
}
