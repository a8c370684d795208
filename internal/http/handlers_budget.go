package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"easeabill/internal/core"
	"easeabill/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// budgetJSON is the shape the client's Budget.fromJson() expects. Spent is
// zero unless the caller computed it; listing goes through the evaluator
// which fills it in.
type budgetJSON struct {
	ID        string  `json:"id"`
	Category  *string `json:"category"`
	Limit     float64 `json:"limit"`
	Spent     float64 `json:"spent"`
	Period    string  `json:"period"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	UserID    string  `json:"userId"`
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:        b.ID.String(),
		Category:  b.Category,
		Limit:     b.Limit.InexactFloat64(),
		Period:    string(b.Period),
		StartDate: b.StartDate.UTC().Format(time.RFC3339),
		EndDate:   b.EndDate.UTC().Format(time.RFC3339),
		UserID:    b.UserID,
	}
}

// budgetRequest distinguishes an absent category from an explicit null:
// null switches the budget to an aggregate one covering all categories.
type budgetRequest struct {
	Category  json.RawMessage `json:"category"`
	Limit     *float64        `json:"limit"`
	Period    *string         `json:"period"`
	StartDate *string         `json:"startDate"`
	EndDate   *string         `json:"endDate"`
}

// categoryField returns (nil, nil) when the field was absent, ("", &nil) when
// null was sent, and a pointer to the value otherwise.
func (r budgetRequest) categoryField() (**string, error) {
	if len(r.Category) == 0 {
		return nil, nil
	}
	if string(r.Category) == "null" {
		var null *string
		return &null, nil
	}
	var v string
	if err := json.Unmarshal(r.Category, &v); err != nil {
		return nil, err
	}
	v = sanitizeInput(v)
	p := &v
	return &p, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"
	budgets, err := s.evaluator.BudgetsWithSpent(r.Context(), userIDFrom(r.Context()), time.Now().UTC(), activeOnly)
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list budgets")
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b := core.Budget{UserID: userIDFrom(r.Context()), Period: core.Monthly}
	catField, err := req.categoryField()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category")
		return
	}
	if catField != nil {
		b.Category = *catField
	}
	if req.Limit != nil {
		b.Limit = decimal.NewFromFloat(*req.Limit)
	}
	if req.Period != nil {
		period, err := core.ParsePeriod(*req.Period)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period")
			return
		}
		b.Period = period
	}

	if req.StartDate != nil && req.EndDate != nil {
		start, err1 := parseExpenseDate(*req.StartDate)
		end, err2 := parseExpenseDate(*req.EndDate)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		b.StartDate, b.EndDate = start, end
	} else {
		start, end, err := core.WindowForPeriod(b.Period, time.Now())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period")
			return
		}
		b.StartDate, b.EndDate = start, end
	}

	if err := b.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.storage.CreateBudget(r.Context(), b)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create budget failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create budget")
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetJSON(saved))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid budget ID")
		return
	}

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	catField, err := req.categoryField()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category")
		return
	}
	var limit *decimal.Decimal
	if req.Limit != nil {
		v := decimal.NewFromFloat(*req.Limit)
		limit = &v
	}
	var period *core.Period
	if req.Period != nil {
		p, err := core.ParsePeriod(*req.Period)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period")
			return
		}
		period = &p
	}
	var startDate, endDate *time.Time
	if req.StartDate != nil {
		d, err := parseExpenseDate(*req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		startDate = &d
	}
	if req.EndDate != nil {
		d, err := parseExpenseDate(*req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		endDate = &d
	}

	updated, err := s.storage.UpdateBudget(r.Context(), userIDFrom(r.Context()), id,
		catField, limit, period, startDate, endDate)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Budget not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Update budget failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update budget")
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid budget ID")
		return
	}

	err = s.storage.DeleteBudget(r.Context(), userIDFrom(r.Context()), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Budget not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete budget failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete budget")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}
