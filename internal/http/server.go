// Package http serves the back-office JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/documents"
	"backoffice/internal/liability"
	"backoffice/internal/log"
	"backoffice/internal/metrics"
	"backoffice/internal/middleware/ratelimit"
	"backoffice/internal/middleware/security"
	"backoffice/internal/middleware/trace"
	"backoffice/internal/reports"
	"backoffice/internal/services"
)

// Reports builds the read-side reports.
type Reports interface {
	Accounts(ctx context.Context, f reports.Filter) (reports.AccountsSummary, error)
	Liabilities(ctx context.Context) (liability.Summary, error)
}

// Documents manages entities, their documents and dismissals.
type Documents interface {
	Summaries(ctx context.Context, kind core.EntityKind) ([]documents.EntitySummary, error)
	Queue(ctx context.Context) ([]documents.QueueItem, error)
	Dismiss(ctx context.Context, documentID string, reason core.DismissalReason, note string) (core.Dismissal, error)
	CreateEntity(ctx context.Context, kind core.EntityKind, e core.Entity) (core.Entity, error)
	AddDocument(ctx context.Context, kind core.EntityKind, entityID string, d core.Document) (core.Document, error)
	UpdateDocument(ctx context.Context, id string, patch services.DocumentPatch) (core.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// Ledger writes ledger records.
type Ledger interface {
	Record(ctx context.Context, rec core.LedgerRecord) (core.LedgerRecord, error)
	Unpublish(ctx context.Context, id string) error
	InstantProfit(ctx context.Context, req services.InstantProfitRequest) (services.InstantProfitResult, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Reports   Reports
	Documents Documents
	Ledger    Ledger
	Store     Pinger
}

type Options struct {
	RateLimit      ratelimit.Config
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server

	reports   Reports
	documents Documents
	ledger    Ledger
	store     Pinger

	rateLimiter  *ratelimit.Limiter
	logger       *log.Logger
	audit        *log.StructuredLogger
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. Requests pass through trace,
// security headers, the rate limiter and the metrics instrument, in that
// order, before reaching the mux.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	resolver, err := security.NewIPResolver(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		reports:     deps.Reports,
		documents:   deps.Documents,
		ledger:      deps.Ledger,
		store:       deps.Store,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		logger:      logger,
		audit:       log.NewStructuredLogger(logger),
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	// Instrument reads r.Pattern after the mux has matched, so it wraps the
	// mux directly.
	var h http.Handler = metrics.Instrument(mux)
	h = s.rateLimiter.Middleware(resolver.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, retry later").Write(w)
	})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(logger, resolver.ClientIP).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/reports/accounts", s.handleAccounts)
	mux.HandleFunc("GET /api/reports/liabilities", s.handleLiabilities)

	mux.HandleFunc("GET /api/entities/{kind}/summary", s.handleEntitySummaries)
	mux.HandleFunc("POST /api/entities/{kind}", s.handleCreateEntity)
	mux.HandleFunc("POST /api/entities/{kind}/{id}/documents", s.handleAddDocument)
	mux.HandleFunc("GET /api/documents/queue", s.handleQueue)
	mux.HandleFunc("PATCH /api/documents/{id}", s.handleUpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /api/documents/{id}/dismissals", s.handleDismiss)

	mux.HandleFunc("POST /api/ledger/records", s.handleCreateRecord)
	mux.HandleFunc("DELETE /api/ledger/records/{id}", s.handleUnpublishRecord)
	mux.HandleFunc("POST /api/ledger/instant-profit", s.handleInstantProfit)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// fail writes the response for err. Errors outside the domain are logged
// with the request context and reported as 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	b, ok := ErrorFrom(err)
	if !ok {
		s.audit.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op,
			log.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
	}
	b.Write(w)
}
