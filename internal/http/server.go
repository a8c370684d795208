// Package http exposes the JSON API the mobile client talks to.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"easeabill/internal/auth"
	"easeabill/internal/cohort"
	"easeabill/internal/goals"
	"easeabill/internal/ingest"
	applog "easeabill/internal/log"
	"easeabill/internal/middleware/ratelimit"
	"easeabill/internal/middleware/security"
	"easeabill/internal/middleware/trace"
	"easeabill/internal/services"
	"easeabill/internal/stats"
	"easeabill/internal/storage"
)

type Server struct {
	http.Server

	storage    *storage.SQLiteRepository
	authSvc    *auth.Service
	expenseSvc *services.ExpenseService
	budgetGen  *services.BudgetGenerator
	evaluator  *goals.Evaluator
	aggregator *stats.Aggregator
	comparator *cohort.Comparator
	ingestor   *ingest.Client

	rateLimiter  *ratelimit.Limiter
	headers      *security.Headers
	httpLog      *applog.StructuredLogger
	shutdownOnce sync.Once
}

// Deps bundles everything the server routes to.
type Deps struct {
	Storage    *storage.SQLiteRepository
	Auth       *auth.Service
	Expenses   *services.ExpenseService
	BudgetGen  *services.BudgetGenerator
	Evaluator  *goals.Evaluator
	Aggregator *stats.Aggregator
	Comparator *cohort.Comparator
	Ingestor   *ingest.Client
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		storage:     deps.Storage,
		authSvc:     deps.Auth,
		expenseSvc:  deps.Expenses,
		budgetGen:   deps.BudgetGen,
		evaluator:   deps.Evaluator,
		aggregator:  deps.Aggregator,
		comparator:  deps.Comparator,
		ingestor:    deps.Ingestor,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		headers:     security.NewHeaders(security.DefaultHeadersConfig()),
		httpLog:     applog.NewStructuredLogger(applog.New(applog.Config{Component: applog.ComponentHTTP})),
	}

	mux.HandleFunc("GET /", s.withMiddleware(handleIndex))
	mux.HandleFunc("GET /api/health", s.withMiddleware(handleHealth))

	mux.HandleFunc("POST /api/auth/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("POST /api/auth/logout", s.withMiddleware(s.requireAuth(s.handleLogout)))

	mux.HandleFunc("GET /api/user/profile", s.withMiddleware(s.requireAuth(s.handleGetProfile)))
	mux.HandleFunc("PUT /api/user/profile", s.withMiddleware(s.requireAuth(s.handleUpdateProfile)))
	mux.HandleFunc("POST /api/user/generate-budgets", s.withMiddleware(s.requireAuth(s.handleGenerateBudgets)))

	mux.HandleFunc("GET /api/expenses", s.withMiddleware(s.requireAuth(s.handleListExpenses)))
	mux.HandleFunc("POST /api/expenses", s.withMiddleware(s.requireAuth(s.handleCreateExpense)))
	mux.HandleFunc("PUT /api/expenses/{id}", s.withMiddleware(s.requireAuth(s.handleUpdateExpense)))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withMiddleware(s.requireAuth(s.handleDeleteExpense)))

	mux.HandleFunc("GET /api/budgets", s.withMiddleware(s.requireAuth(s.handleListBudgets)))
	mux.HandleFunc("POST /api/budgets", s.withMiddleware(s.requireAuth(s.handleCreateBudget)))
	mux.HandleFunc("PUT /api/budgets/{id}", s.withMiddleware(s.requireAuth(s.handleUpdateBudget)))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withMiddleware(s.requireAuth(s.handleDeleteBudget)))

	mux.HandleFunc("GET /api/stats/pie", s.withMiddleware(s.requireAuth(s.handlePieStats)))
	mux.HandleFunc("GET /api/stats/weekly", s.withMiddleware(s.requireAuth(s.handleWeeklyStats)))
	mux.HandleFunc("GET /api/stats/trend", s.withMiddleware(s.requireAuth(s.handleTrendStats)))

	mux.HandleFunc("GET /api/goals/dashboard", s.withMiddleware(s.requireAuth(s.handleGoalsDashboard)))
	mux.HandleFunc("GET /api/goals/statuses", s.withMiddleware(s.requireAuth(s.handleGoalStatuses)))
	mux.HandleFunc("GET /api/goals/summary", s.withMiddleware(s.requireAuth(s.handleGoalsSummary)))
	mux.HandleFunc("GET /api/goals/spoken", s.withMiddleware(s.requireAuth(s.handleSpokenSummary)))

	mux.HandleFunc("GET /api/cohort/compare", s.withMiddleware(s.requireAuth(s.handleCohortCompare)))

	mux.HandleFunc("POST /api/upload-audio", s.withMiddleware(s.requireAuth(s.handleUploadAudio)))
	mux.HandleFunc("POST /api/upload-image", s.withMiddleware(s.requireAuth(s.handleUploadImage)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, CORS, rate limiting, and request
// logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := security.ExtractClientIP(r)

		ctx := trace.WithRequestID(r.Context(), trace.NewRequestID())
		r = r.WithContext(ctx)

		if s.headers.Apply(w, r) {
			return
		}

		// Only writes are limited; dashboards poll reads freely.
		if r.Method == http.MethodPost && !s.rateLimiter.Allow(clientIP) {
			s.httpLog.LogRateLimited(ctx, r, clientIP)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

type contextKey string

const userIDKey contextKey = "user_id"

// requireAuth resolves the bearer token and puts the user ID on the context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		userID, err := s.authSvc.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<p>EaseABill API is running!</p>"))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
