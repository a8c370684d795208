package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"easeabill/internal/core"
	"easeabill/internal/stats"
)

func (s *Server) handlePieStats(w http.ResponseWriter, r *http.Request) {
	start, err := queryTime(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date")
		return
	}
	end, err := queryTime(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date")
		return
	}
	topN := queryInt(r, "topN", stats.DefaultTopN)
	includeOther := r.URL.Query().Get("includeOther") != "false"

	pie, err := s.aggregator.PieByCategory(r.Context(), userIDFrom(r.Context()), start, end, time.Now().UTC(), topN, includeOther)
	if err != nil {
		slog.ErrorContext(r.Context(), "Pie stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, pie)
}

func (s *Server) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	weeks := queryInt(r, "weeks", 4)
	category := queryCategory(r)

	series, err := s.aggregator.WeeklySeries(r.Context(), userIDFrom(r.Context()), weeks, category, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "Weekly stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleTrendStats(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r, core.Monthly)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period")
		return
	}
	buckets := queryInt(r, "buckets", 6)

	series, err := s.aggregator.TrendSeries(r.Context(), userIDFrom(r.Context()), period, buckets, time.Now().UTC())
	if err != nil {
		slog.ErrorContext(r.Context(), "Trend stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func queryPeriod(r *http.Request, fallback core.Period) (core.Period, error) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return fallback, nil
	}
	period, err := core.ParsePeriod(raw)
	if err != nil {
		return "", errors.New("invalid period")
	}
	return period, nil
}
