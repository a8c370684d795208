package http

import (
	"log/slog"
	"net/http"
	"time"

	"easeabill/internal/core"
)

func (s *Server) handleGoalsDashboard(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"
	results, err := s.evaluator.EvaluateAllBudgetGoals(r.Context(), userIDFrom(r.Context()), time.Now().UTC(), activeOnly)
	if err != nil {
		slog.ErrorContext(r.Context(), "Goal dashboard failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to evaluate goals")
		return
	}
	if results == nil {
		results = []core.BudgetGoalResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": results})
}

// handleGoalStatuses returns the persisted notification feed for a day,
// today by default.
func (s *Server) handleGoalStatuses(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if d, err := queryTime(r, "day"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid day")
		return
	} else if d != nil {
		day = *d
	}

	statuses, err := s.storage.ListBudgetStatuses(r.Context(), userIDFrom(r.Context()), day)
	if err != nil {
		slog.ErrorContext(r.Context(), "Goal statuses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load goal statuses")
		return
	}

	out := make([]statusJSON, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, toStatusJSON(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGoalsSummary(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, core.Monthly)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period")
		return
	}

	summary, err := s.evaluator.CurrentSpendSummary(r.Context(), userIDFrom(r.Context()), period, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "Spend summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSpokenSummary(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, core.Monthly)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period")
		return
	}

	text, err := s.evaluator.SpokenSummary(r.Context(), userIDFrom(r.Context()), period, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "Spoken summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

type statusJSON struct {
	ID           string           `json:"id"`
	GoalType     string           `json:"goalType"`
	Status       core.GoalStatus  `json:"status"`
	ShouldNotify bool             `json:"shouldNotify"`
	Message      string           `json:"message"`
	Data         core.GoalPayload `json:"data"`
	Timestamp    string           `json:"timestamp"`
}

func toStatusJSON(st core.BudgetStatus) statusJSON {
	return statusJSON{
		ID:           st.ID.String(),
		GoalType:     st.GoalType,
		Status:       st.Status,
		ShouldNotify: st.ShouldNotify,
		Message:      st.Message,
		Data:         st.Data,
		Timestamp:    st.Timestamp.UTC().Format(time.RFC3339),
	}
}
