// Package http exposes the ledger operations as a JSON API.
package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
	// Now is the clock used for default dates; time.Now when nil.
	Now func() time.Time
}

type Server struct {
	http.Server
	ledger      *services.Ledger
	db          Pinger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	now         func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.Ledger, db Pinger, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		ledger:      ledger,
		db:          db,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:      trace.NewMiddleware(opts.Logger),
		now:         opts.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	api.HandleFunc("GET /api/accounts", s.handleListAccounts)
	api.HandleFunc("GET /api/accounts/{id}/competence", s.handleCompetence)
	api.HandleFunc("POST /api/categories", s.handleCreateCategory)

	api.HandleFunc("POST /api/entries", s.handleRecordEntry)
	api.HandleFunc("PATCH /api/entries/{id}", s.handleEditEntry)
	api.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	api.HandleFunc("POST /api/entries/{id}/settle", s.handleSettle)

	api.HandleFunc("POST /api/recurrences", s.handleCreateRecurrence)

	api.HandleFunc("POST /api/installments", s.handleCreateInstallments)
	api.HandleFunc("DELETE /api/installments/{id}", s.handleCancelInstallments)

	api.HandleFunc("POST /api/transfers", s.handleCreateTransfer)

	api.HandleFunc("GET /api/budgets", s.handleListBudgets)
	api.HandleFunc("GET /api/budgets/{category}/{period}", s.handleBudgetStatus)
	api.HandleFunc("PUT /api/budgets/{category}/{period}", s.handleSetBudget)

	limited := s.rateLimiter.Middleware(rateLimitKey, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{
			Error:     "rate limit exceeded",
			Kind:      "rate_limited",
			RequestID: trace.GetRequestID(r.Context()),
		})
	})
	mux.Handle("/api/", limited(api))

	// Operator endpoints act across owners and take no owner header.
	mux.Handle("POST /ops/recurrences/run", limited(http.HandlerFunc(s.handleRunRecurrences)))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

// rateLimitKey buckets requests by owner, falling back to the client address.
func rateLimitKey(r *http.Request) string {
	if id, err := ownerID(r); err == nil {
		return "owner:" + strconv.FormatInt(id, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Health check failed", applog.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
