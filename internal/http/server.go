// Package http exposes the JSON API. Route handlers stay thin: parse,
// delegate to a service, render. Ownership is scoped by the X-User-ID
// header on every /api route.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// userIDHeader names the authenticated user. Authentication itself lives in
// the reverse proxy; the API trusts the header and fails closed without it.
const userIDHeader = "X-User-ID"

// Deps carries everything the routes need.
type Deps struct {
	Repo         *storage.Repository
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Reminders    *services.ReminderService
	Recommender  *services.Recommender
	Importer     *services.Importer
	Backups      *services.BackupService
	Insights     *services.InsightsService
	Dashboard    *services.DashboardService
}

// Server is the API server.
type Server struct {
	http.Server

	deps         Deps
	limiter      *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

func NewServer(port string, deps Deps) *Server {
	s := &Server{
		deps:     deps,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: security.NewDetector(),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/accounts", s.withUser(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts", s.withUser(s.handleListAccounts))
	mux.HandleFunc("GET /api/accounts/{id}", s.withUser(s.handleGetAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.withUser(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.withUser(s.handleDeleteAccount))

	mux.HandleFunc("POST /api/categories", s.withUser(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories", s.withUser(s.handleListCategories))
	mux.HandleFunc("PUT /api/categories/{id}", s.withUser(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withUser(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/transactions", s.withUser(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.withUser(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.withUser(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withUser(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withUser(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transfers", s.withUser(s.handleTransfer))
	mux.HandleFunc("POST /api/import", s.withUser(s.handleImportCSV))

	mux.HandleFunc("POST /api/budgets", s.withUser(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.withUser(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/{id}", s.withUser(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.withUser(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withUser(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/budgets/recommendations", s.withUser(s.handleRecommendations))
	mux.HandleFunc("POST /api/budgets/recommendations/apply", s.withUser(s.handleApplyRecommendations))

	mux.HandleFunc("POST /api/goals", s.withUser(s.handleCreateGoal))
	mux.HandleFunc("GET /api/goals", s.withUser(s.handleListGoals))
	mux.HandleFunc("GET /api/goals/{id}", s.withUser(s.handleGetGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.withUser(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.withUser(s.handleDeleteGoal))
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.withUser(s.handleContribute))
	mux.HandleFunc("GET /api/goals/{id}/contributions", s.withUser(s.handleListContributions))

	mux.HandleFunc("POST /api/recurring", s.withUser(s.handleCreateRecurring))
	mux.HandleFunc("GET /api/recurring", s.withUser(s.handleListRecurring))
	mux.HandleFunc("GET /api/recurring/{id}", s.withUser(s.handleGetRecurring))
	mux.HandleFunc("PUT /api/recurring/{id}", s.withUser(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.withUser(s.handleDeleteRecurring))

	mux.HandleFunc("POST /api/reminders", s.withUser(s.handleCreateReminder))
	mux.HandleFunc("GET /api/reminders", s.withUser(s.handleListReminders))
	mux.HandleFunc("GET /api/reminders/{id}", s.withUser(s.handleGetReminder))
	mux.HandleFunc("PUT /api/reminders/{id}", s.withUser(s.handleUpdateReminder))
	mux.HandleFunc("DELETE /api/reminders/{id}", s.withUser(s.handleDeleteReminder))
	mux.HandleFunc("POST /api/reminders/{id}/complete", s.withUser(s.handleCompleteReminder))

	mux.HandleFunc("POST /api/tags", s.withUser(s.handleCreateTag))
	mux.HandleFunc("GET /api/tags", s.withUser(s.handleListTags))
	mux.HandleFunc("PUT /api/tags/{id}", s.withUser(s.handleUpdateTag))
	mux.HandleFunc("DELETE /api/tags/{id}", s.withUser(s.handleDeleteTag))

	mux.HandleFunc("POST /api/filters", s.withUser(s.handleCreateSavedFilter))
	mux.HandleFunc("GET /api/filters", s.withUser(s.handleListSavedFilters))
	mux.HandleFunc("DELETE /api/filters/{id}", s.withUser(s.handleDeleteSavedFilter))

	mux.HandleFunc("GET /api/dashboard", s.withUser(s.handleDashboard))
	mux.HandleFunc("GET /api/export/all", s.withUser(s.handleExport))
	mux.HandleFunc("POST /api/import/backup", s.withUser(s.handleImportBackup))
	mux.HandleFunc("POST /api/insights/ai", s.withUser(s.handleInsights))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	traced := trace.NewMiddleware(s.detector.ExtractClientIP)
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)

	s.Server = http.Server{
		Addr:         ":" + port,
		Handler:      headers.Middleware(traced.Middleware(limited(s.detect(mux)))),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s
}

// detect logs requests matching known probe patterns. They are served
// normally; the log line feeds alerting.
func (s *Server) detect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// userHandler is a route handler with the caller already resolved.
type userHandler func(w http.ResponseWriter, r *http.Request, userID int64)

// withUser resolves the calling user from the X-User-ID header and fails
// closed when it is missing or malformed.
func (s *Server) withUser(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(userIDHeader)
		if raw == "" {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing " + userIDHeader + " header"})
			return
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID < 1 {
			badRequest(w, "invalid "+userIDHeader+" header")
			return
		}
		h(w, r, userID)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady also checks the database so orchestrators stop routing to an
// instance that lost its storage.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repo.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": "database unreachable",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Start serves until the listener closes.
func (s *Server) Start() error {
	slog.Info("HTTP server starting", "addr", s.Addr)
	return s.ListenAndServe()
}

// Stop drains in-flight requests and releases the rate limiter.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		err = s.Shutdown(shutdownCtx)
	})
	return err
}
