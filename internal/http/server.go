// Package http serves the budget JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"budget/internal/auth"
	"budget/internal/log"
	"budget/internal/services"
)

// Options wires the server's collaborators. Ready, when set, backs /readyz.
type Options struct {
	Addr               string
	Budget             *services.BudgetService
	Rollover           *services.RolloverDetector
	Auth               *auth.JWTManager
	Ready              func(ctx context.Context) error
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	budget      *services.BudgetService
	rollover    *services.RolloverDetector
	ready       func(ctx context.Context) error
	rateLimiter *rateLimiter
	logger      *log.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		budget:      opts.Budget,
		rollover:    opts.Rollover,
		ready:       opts.Ready,
		rateLimiter: newRateLimiter(opts.RateLimitPerMinute),
		logger:      logger.WithComponent(log.ComponentHTTP),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter.middleware)
		r.Use(opts.Auth.Middleware)

		r.Get("/overview", s.handleOverview)

		r.Get("/income", s.handleListIncome)
		r.Post("/income", s.handleCreateIncome)
		r.Delete("/income/{id}", s.handleDeleteIncome)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)
		r.Put("/categories/{id}", s.handleUpdateCategory)
		r.Delete("/categories/{id}", s.handleDeleteCategory)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Delete("/expenses/{id}", s.handleDeleteExpense)

		r.Get("/debts", s.handleListDebts)
		r.Post("/debts", s.handleCreateDebt)
		r.Put("/debts/{id}", s.handleUpdateDebt)
		r.Delete("/debts/{id}", s.handleDeleteDebt)
		r.Post("/debts/{id}/payments", s.handleRecordPayment)

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleUpdateProfile)

		r.Get("/rollover", s.handleRolloverCheck)
		r.Post("/rollover/ack", s.handleRolloverAck)

		r.Get("/export.csv", s.handleExportCSV)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusNotFound, "Not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests and the rate limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}
