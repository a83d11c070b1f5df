package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"expensetracker/internal/expense/domain"
	expenseErrors "expensetracker/internal/expense/errors"
)

type ExpenseServiceInterface interface {
	CreateExpense(ctx context.Context, expense *domain.Expense) (*domain.Expense, error)
	GetExpense(ctx context.Context, ownerID, expenseID string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, ownerID string, filter domain.ListFilter) ([]domain.Expense, int, float64, error)
	UpdateExpense(ctx context.Context, ownerID, expenseID string, update domain.ExpenseUpdate) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, expenseID string) error
	ImportExpenses(ctx context.Context, ownerID string, expenses []*domain.Expense) (int, error)
	GetStats(ctx context.Context, ownerID string, startDate, endDate *time.Time) (*domain.ExpenseStats, error)
	GetDashboardExpenses(ctx context.Context, ownerID, timeFilter string) ([]domain.Expense, error)
}

type ExpenseHandler struct {
	service      ExpenseServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewExpenseHandler(
	service ExpenseServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *ExpenseHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	if respondJSON == nil {
		log.Fatal("RespondJSON function must not be nil")
		return nil
	}
	if respondError == nil {
		log.Fatal("RespondError function must not be nil")
		return nil
	}
	return &ExpenseHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type expenseRequest struct {
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	ExpenseDate string  `json:"expenseDate"`
	Category    string  `json:"category"`
	PaymentType string  `json:"paymentType"`
	Comment     string  `json:"comment"`
}

// parseDate accepts RFC 3339 timestamps or plain dates.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func (req expenseRequest) toDomain(ownerID string) (*domain.Expense, error) {
	expense := &domain.Expense{
		OwnerID:     ownerID,
		Name:        req.Name,
		Amount:      req.Amount,
		Category:    req.Category,
		PaymentType: req.PaymentType,
		Comment:     req.Comment,
	}
	if req.ExpenseDate != "" {
		date, err := parseDate(req.ExpenseDate)
		if err != nil {
			return nil, expenseErrors.NewValidationError("Invalid expense date format")
		}
		expense.ExpenseDate = date
	}
	return expense, nil
}

func (h *ExpenseHandler) handleServiceError(w http.ResponseWriter, err error, fallback string) {
	var validationErrors *expenseErrors.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorMessages := make([]string, len(validationErrors.Errors))
		for i, vErr := range validationErrors.Errors {
			errorMessages[i] = vErr.Error()
		}
		h.respondError(w, http.StatusBadRequest, "Validation errors occurred", errorMessages)
		return
	}
	if expenseErrors.IsValidationError(err) {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, expenseErrors.ErrExpenseNotFound) {
		h.respondError(w, http.StatusNotFound, "Expense not found")
		return
	}
	log.Printf("Expense handler error: %v", err)
	h.respondError(w, http.StatusInternalServerError, fallback)
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	expense, err := req.toDomain(userID)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.service.CreateExpense(r.Context(), expense)
	if err != nil {
		h.handleServiceError(w, err, "Failed to create expense")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Expense created successfully",
		"data":    toExpenseResponse(*created),
	})
}

func (h *ExpenseHandler) GetAllExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter := domain.ListFilter{
		Category: r.URL.Query().Get("category"),
		SortBy:   r.URL.Query().Get("sortBy"),
		SortDesc: r.URL.Query().Get("sortType") != "asc",
		Page:     1,
		Limit:    domain.DefaultLimit,
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil {
			filter.Page = page
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if startDateStr := r.URL.Query().Get("startDate"); startDateStr != "" {
		startDate, err := parseDate(startDateStr)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid start date format")
			return
		}
		filter.StartDate = &startDate
	}
	if endDateStr := r.URL.Query().Get("endDate"); endDateStr != "" {
		endDate, err := parseDate(endDateStr)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid end date format")
			return
		}
		filter.EndDate = &endDate
	}

	expenses, totalCount, totalAmount, err := h.service.ListExpenses(r.Context(), userID, filter)
	if err != nil {
		h.handleServiceError(w, err, "Failed to retrieve expenses")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expenses fetched successfully",
		"data": map[string]interface{}{
			"expenses":      toLegacyExpenseResponses(expenses),
			"totalExpenses": totalCount,
			"totalAmount":   totalAmount,
		},
	})
}

func (h *ExpenseHandler) GetExpenseByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	expenseID := r.PathValue("expenseID")

	expense, err := h.service.GetExpense(r.Context(), userID, expenseID)
	if err != nil {
		h.handleServiceError(w, err, "Failed to retrieve expense")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expense fetched successfully",
		"data":    toLegacyExpenseResponse(*expense),
	})
}

type updateExpenseRequest struct {
	Name        *string  `json:"name"`
	Amount      *float64 `json:"amount"`
	ExpenseDate *string  `json:"expenseDate"`
	Category    *string  `json:"category"`
	PaymentType *string  `json:"paymentType"`
	Comment     *string  `json:"comment"`
}

func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	expenseID := r.PathValue("expenseID")

	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := domain.ExpenseUpdate{
		Name:        req.Name,
		Amount:      req.Amount,
		Category:    req.Category,
		PaymentType: req.PaymentType,
		Comment:     req.Comment,
	}
	if req.ExpenseDate != nil {
		date, err := parseDate(*req.ExpenseDate)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid expense date format")
			return
		}
		update.ExpenseDate = &date
	}

	expense, err := h.service.UpdateExpense(r.Context(), userID, expenseID, update)
	if err != nil {
		h.handleServiceError(w, err, "Failed to update expense")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expense updated successfully",
		"data":    toExpenseResponse(*expense),
	})
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	expenseID := r.PathValue("expenseID")

	if err := h.service.DeleteExpense(r.Context(), userID, expenseID); err != nil {
		h.handleServiceError(w, err, "Failed to delete expense")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expense deleted successfully",
		"data":    map[string]interface{}{},
	})
}

func (h *ExpenseHandler) ImportExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req struct {
		Expenses []expenseRequest `json:"expenses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Expenses) == 0 {
		h.respondError(w, http.StatusBadRequest, "Expenses array is required")
		return
	}

	expenses := make([]*domain.Expense, 0, len(req.Expenses))
	for i, item := range req.Expenses {
		expense, err := item.toDomain(userID)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, expenseErrors.NewIndexedValidationError(i+1, err.Error()).Error())
			return
		}
		expenses = append(expenses, expense)
	}

	count, err := h.service.ImportExpenses(r.Context(), userID, expenses)
	if err != nil {
		h.handleServiceError(w, err, "Failed to import expenses")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Expenses imported successfully",
		"data":    map[string]interface{}{"count": count},
	})
}

func (h *ExpenseHandler) GetExpenseStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var startDate, endDate *time.Time
	if startDateStr := r.URL.Query().Get("startDate"); startDateStr != "" {
		date, err := parseDate(startDateStr)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid start date format")
			return
		}
		startDate = &date
	}
	if endDateStr := r.URL.Query().Get("endDate"); endDateStr != "" {
		date, err := parseDate(endDateStr)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid end date format")
			return
		}
		endDate = &date
	}

	stats, err := h.service.GetStats(r.Context(), userID, startDate, endDate)
	if err != nil {
		h.handleServiceError(w, err, "Failed to retrieve expense statistics")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expense statistics fetched successfully",
		"data":    stats,
	})
}

func (h *ExpenseHandler) GetDashboardExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	expenses, err := h.service.GetDashboardExpenses(r.Context(), userID, r.URL.Query().Get("timeFilter"))
	if err != nil {
		h.handleServiceError(w, err, "Failed to retrieve dashboard expenses")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Dashboard expenses retrieved successfully",
		"data":    toExpenseResponses(expenses),
	})
}
