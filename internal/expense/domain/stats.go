package domain

// CategoryStat is one row of the per-category breakdown, ordered by
// TotalAmount descending.
type CategoryStat struct {
	Category    string  `json:"_id"`
	TotalAmount float64 `json:"totalAmount"`
	Count       int     `json:"count"`
	AvgAmount   float64 `json:"avgAmount"`
}

// OverallStats summarizes all matching expenses regardless of category.
// Zero matching rows yield the zero value, not an error.
type OverallStats struct {
	TotalExpenses int     `json:"totalExpenses"`
	TotalAmount   float64 `json:"totalAmount"`
	AvgAmount     float64 `json:"avgAmount"`
	MaxAmount     float64 `json:"maxAmount"`
	MinAmount     float64 `json:"minAmount"`
}

// ExpenseStats is the combined statistics payload.
type ExpenseStats struct {
	CategoryStats []CategoryStat `json:"categoryStats"`
	OverallStats  OverallStats   `json:"overallStats"`
}
