package http

import (
	"errors"
	"log/slog"
	"net/http"

	"easeabill/internal/auth"
	"easeabill/internal/core"
	"easeabill/internal/services"
	"easeabill/internal/storage"

	"github.com/shopspring/decimal"
)

// userJSON is the profile shape the client's User.fromJson() expects.
type userJSON struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Location      *string  `json:"location"`
	MonthlyIncome *float64 `json:"monthlyIncome"`
	BudgetGoal    *float64 `json:"budgetGoal"`
	IsOnboarded   bool     `json:"isOnboarded"`
}

func toUserJSON(u core.User) userJSON {
	out := userJSON{
		ID:          u.ID,
		Username:    u.Username,
		Location:    u.Location,
		IsOnboarded: u.IsOnboarded,
	}
	if u.MonthlyIncome != nil {
		v := u.MonthlyIncome.InexactFloat64()
		out.MonthlyIncome = &v
	}
	if u.BudgetGoal != nil {
		v := u.BudgetGoal.InexactFloat64()
		out.BudgetGoal = &v
	}
	return out
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := s.authSvc.Register(r.Context(), sanitizeInput(req.Username), req.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTooShort), errors.Is(err, auth.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username already exists")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token.Token,
		"user":  toUserJSON(user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := s.authSvc.Login(r.Context(), sanitizeInput(req.Username), req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token.Token,
		"user":  toUserJSON(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.authSvc.Logout(r.Context(), bearerToken(r)); err != nil {
		slog.ErrorContext(r.Context(), "Logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.storage.GetUserByID(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "Profile lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(*user))
}

type profileRequest struct {
	Location      *string  `json:"location"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	MonthlyIncome *float64 `json:"monthlyIncome"`
	BudgetGoal    *float64 `json:"budgetGoal"`
	IsOnboarded   *bool    `json:"isOnboarded"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	upd := storageProfileUpdate(req)
	user, err := s.storage.UpdateUserProfile(r.Context(), userIDFrom(r.Context()), upd)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Profile update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(*user))
}

func (s *Server) handleGenerateBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgetGen.Generate(r.Context(), userIDFrom(r.Context()))
	if errors.Is(err, services.ErrNoBudgetGoal) {
		writeError(w, http.StatusBadRequest, "Set a budget goal first")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate budgets")
		return
	}

	out := make([]budgetJSON, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetJSON(b))
	}
	writeJSON(w, http.StatusCreated, out)
}

func storageProfileUpdate(req profileRequest) (upd storage.ProfileUpdate) {
	upd.Location = req.Location
	upd.Latitude = req.Latitude
	upd.Longitude = req.Longitude
	upd.IsOnboarded = req.IsOnboarded
	if req.MonthlyIncome != nil {
		v := decimal.NewFromFloat(*req.MonthlyIncome)
		upd.MonthlyIncome = &v
	}
	if req.BudgetGoal != nil {
		v := decimal.NewFromFloat(*req.BudgetGoal)
		upd.BudgetGoal = &v
	}
	return upd
}
