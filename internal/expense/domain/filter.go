package domain

import "time"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// sortColumns whitelists the fields a caller may sort by. Anything else
// falls back to the default ordering instead of reaching the query.
var sortColumns = map[string]string{
	"name":         "name",
	"amount":       "amount",
	"expenseDate":  "expense_date",
	"expense_date": "expense_date",
	"category":     "category",
	"paymentType":  "payment_type",
	"payment_type": "payment_type",
	"createdAt":    "created_at",
	"created_at":   "created_at",
}

// ListFilter is the combined filter, sort and pagination input for an
// expense page query. Ownership is not part of it; the repository applies
// the owner predicate unconditionally.
type ListFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    string
	SortDesc  bool
	Page      int
	Limit     int
}

// Normalize clamps pagination values and resolves the sort field against
// the whitelist. Unknown or empty sort fields fall back to expense_date;
// the requested direction is kept either way.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "expense_date"
	}
}

// SortColumn returns the whitelisted column name for the resolved sort field.
func (f ListFilter) SortColumn() string {
	if col, ok := sortColumns[f.SortBy]; ok {
		return col
	}
	return "expense_date"
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
