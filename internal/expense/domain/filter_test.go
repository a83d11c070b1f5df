package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListFilterNormalize_KeepsDirectionOnFallback(t *testing.T) {
	filter := ListFilter{SortDesc: false}
	filter.Normalize()
	assert.Equal(t, "expense_date", filter.SortBy)
	assert.False(t, filter.SortDesc)

	filter = ListFilter{SortBy: "not-a-field", SortDesc: true}
	filter.Normalize()
	assert.Equal(t, "expense_date", filter.SortBy)
	assert.True(t, filter.SortDesc)
}

func TestListFilterNormalize_ClampsPagination(t *testing.T) {
	filter := ListFilter{Page: -3, Limit: 0}
	filter.Normalize()
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, DefaultLimit, filter.Limit)
	assert.Equal(t, 0, filter.Offset())

	filter = ListFilter{Page: 2, Limit: 500}
	filter.Normalize()
	assert.Equal(t, MaxLimit, filter.Limit)
	assert.Equal(t, MaxLimit, filter.Offset())
}

func TestListFilterSortColumn_WhitelistAliases(t *testing.T) {
	cases := map[string]string{
		"expenseDate": "expense_date",
		"paymentType": "payment_type",
		"createdAt":   "created_at",
		"amount":      "amount",
		"anything":    "expense_date",
	}
	for sortBy, column := range cases {
		filter := ListFilter{SortBy: sortBy}
		filter.Normalize()
		assert.Equal(t, column, filter.SortColumn(), "sortBy %q", sortBy)
	}
}
