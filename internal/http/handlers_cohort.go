package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"easeabill/internal/core"
)

func (s *Server) handleCohortCompare(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, core.Monthly)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period")
		return
	}
	category := queryCategory(r)

	comparison, err := s.comparator.Compare(r.Context(), userIDFrom(r.Context()), period, category, time.Now().UTC())
	if errors.Is(err, core.ErrInvalidPeriod) {
		writeError(w, http.StatusBadRequest, "Invalid period")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Cohort comparison failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compare with peers")
		return
	}
	writeJSON(w, http.StatusOK, comparison)
}
