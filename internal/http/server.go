package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/codec"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

const (
	viewCacheSize = 16
	viewCacheTTL  = 30 * time.Second

	defaultRecentLimit = 5
	maxRecentLimit     = 100
)

type (
	// Ledger is the record-management surface the API exposes.
	Ledger interface {
		CreateTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
		CreateCategory(ctx context.Context, d core.CategoryDraft) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
		Categories(ctx context.Context) ([]core.Category, error)
		Transactions(ctx context.Context, f core.Filter) ([]core.Transaction, error)
		Recent(ctx context.Context, n int) ([]core.Transaction, error)
		Summary(ctx context.Context) (core.Summary, error)
		Breakdown(ctx context.Context) ([]core.CategoryAmount, error)
	}

	// Transfer imports and exports whole files.
	Transfer interface {
		Import(ctx context.Context, format string, r io.Reader) (services.ImportReport, error)
		ExportCSV(ctx context.Context, w io.Writer) error
		ExportJSON(ctx context.Context, w io.Writer) error
		ExportSheets(ctx context.Context) (string, error)
	}

	// HealthChecker is implemented by backends that can report readiness.
	HealthChecker interface {
		HealthCheck(ctx context.Context) error
	}
)

// Config tunes the server. Zero values select the defaults.
type Config struct {
	Addr string
	// ErrorPreview is how many row errors an import message lists.
	ErrorPreview int
	// ImportRequestsPerMinute limits import calls per client IP.
	ImportRequestsPerMinute int
	// SheetsRequestsPerMinute limits Sheets exports per client IP.
	SheetsRequestsPerMinute int
	TrustedProxies          []string
	Logger                  *log.Logger
	Health                  HealthChecker
}

type Server struct {
	http.Server
	ledger   Ledger
	transfer Transfer
	health   HealthChecker
	logger   *log.Logger

	errorPreview int
	limiter      *ratelimit.Limiter
	ipExtractor  *security.IPExtractor
	tracer       *trace.Middleware

	summaryCache   *cache.LRU[core.Summary]
	breakdownCache *cache.LRU[[]core.CategoryAmount]
	janitor        *cache.Janitor

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledger Ledger, transfer Transfer) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	preview := cfg.ErrorPreview
	if preview <= 0 {
		preview = services.DefaultErrorPreview
	}

	ipExtractor := security.NewIPExtractor()
	for _, cidr := range cfg.TrustedProxies {
		if err := ipExtractor.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	limiterCfg := ratelimit.Config{Rules: map[string]ratelimit.Rule{
		ratelimit.RouteImport:       {Requests: cfg.ImportRequestsPerMinute, Window: time.Minute},
		ratelimit.RouteSheetsExport: {Requests: cfg.SheetsRequestsPerMinute, Window: time.Minute},
	}}

	s := &Server{
		ledger:         ledger,
		transfer:       transfer,
		health:         cfg.Health,
		logger:         logger,
		errorPreview:   preview,
		limiter:        ratelimit.NewLimiter(limiterCfg),
		ipExtractor:    ipExtractor,
		tracer:         trace.NewMiddleware(ipExtractor.ExtractClientIP, logger),
		summaryCache:   cache.NewLRU[core.Summary](viewCacheSize, viewCacheTTL),
		breakdownCache: cache.NewLRU[[]core.CategoryAmount](viewCacheSize, viewCacheTTL),
	}
	s.janitor = cache.NewJanitor(func(removed int) {
		logger.Debug("View cache cleanup completed",
			"entries_removed", removed,
			"entries_remaining", s.summaryCache.Size()+s.breakdownCache.Size())
	}, s.summaryCache, s.breakdownCache)
	s.janitor.Start(5 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	importLimit := s.limiter.Middleware(ratelimit.RouteImport, s.ipExtractor.ExtractClientIP, s.onRateLimit)
	sheetsLimit := s.limiter.Middleware(ratelimit.RouteSheetsExport, s.ipExtractor.ExtractClientIP, s.onRateLimit)
	mux.Handle("POST /api/import/{format}", importLimit(http.HandlerFunc(s.handleImport)))
	mux.HandleFunc("GET /api/export/{format}", s.handleExport)
	mux.Handle("POST /api/export/sheets", sheetsLimit(http.HandlerFunc(s.handleExportSheets)))

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /api/recent", s.handleRecent)

	var handler http.Handler = mux
	handler = log.RequestIDMiddleware(trace.RequestID)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateViews drops cached dashboard views after a write.
func (s *Server) invalidateViews() {
	s.summaryCache.Purge()
	s.breakdownCache.Purge()
}

// onRateLimit answers a refused request; the limiter has already set
// Retry-After.
func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request, d ratelimit.Decision) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		log.FieldClientIP, s.ipExtractor.ExtractClientIP(r),
		log.FieldPath, r.URL.Path,
		"limit", d.Limit,
		"retry_after_s", d.RetryAfterSeconds())
	NewResponse().
		Status(http.StatusTooManyRequests).
		JSON(errorBody{Error: "Rate limit exceeded. Please try again later."}).
		Write(w)
}

// writeError maps service errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fileErr *codec.FileError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &fileErr):
		UnprocessableEntityError(fileErr.Msg).Write(w)
	case errors.As(err, &maxBytesErr):
		ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large").Write(w)
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrUnknownFormat):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, store.ErrNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, store.ErrProtectedCategory):
		ErrorResponse(http.StatusForbidden, err.Error()).Write(w)
	case errors.Is(err, services.ErrSheetsNotConfigured):
		ErrorResponse(http.StatusNotImplemented, err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		InternalServerError("internal error").Write(w)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.HealthCheck(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
