package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finanzas/internal/log"
	"finanzas/internal/services"
)

// DefaultRateLimit is the number of mutating requests a client may send
// per minute.
const DefaultRateLimit = 60

type Server struct {
	http.Server
	svc     *services.LedgerService
	logger  *log.Logger
	limiter *rateLimiter
	metrics securityMetrics

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithRateLimit sets the per-client budget of mutating requests per
// minute. Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.limiter = newRateLimiter(perMinute) }
}

// NewServer registers the API routes and returns a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		svc:     svc,
		logger:  logger.WithComponent(log.ComponentHTTP),
		limiter: newRateLimiter(DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.withSecurity(handler)
	handler = log.AccessLog()(handler)
	handler = log.RequestIDMiddleware()(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/profiles", s.handleListProfiles)
	mux.HandleFunc("POST /api/profiles", s.handleCreateProfile)
	mux.HandleFunc("PUT /api/profiles/{id}", s.handleUpdateProfile)
	mux.HandleFunc("POST /api/profiles/{id}/activate", s.handleActivateProfile)
	mux.HandleFunc("POST /api/profiles/{id}/income", s.handleAddIncome)
	mux.HandleFunc("PUT /api/profiles/{id}/income", s.handleSetIncome)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)
	mux.HandleFunc("GET /api/necessities", s.handleListNecessities)
	mux.HandleFunc("POST /api/necessities", s.handleAddNecessity)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /api/transactions/quick", s.handleQuickTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleEditTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/suggestions", s.handleSuggestions)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/insights", s.handleInsights)

	mux.HandleFunc("GET /api/activity", s.handleActivity)
	mux.HandleFunc("GET /api/activity/recent", s.handleRecentActivity)
	mux.HandleFunc("GET /api/activity/months", s.handleActivityMonths)

	mux.HandleFunc("GET /api/export/transactions.csv", s.handleExportTransactionsCSV)
	mux.HandleFunc("GET /api/export/transactions.xlsx", s.handleExportTransactionsXLSX)
	mux.HandleFunc("GET /api/export/activity.csv", s.handleExportActivityCSV)

	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/factory-reset", s.handleFactoryReset)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// respond writes b and logs server-side failures with the request's
// logger.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, b *JSONResponseBuilder, err error) {
	if err != nil && b.StatusCode() >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err.Error())
	}
	b.Write(w)
}
