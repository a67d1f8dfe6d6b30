// Package http serves the ledger JSON API consumed by the browser
// front-end and the CLI.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"lapkeu/internal/auth"
	"lapkeu/internal/cache"
	"lapkeu/internal/core"
	applog "lapkeu/internal/log"
	"lapkeu/internal/middleware/cors"
	"lapkeu/internal/middleware/ratelimit"
	"lapkeu/internal/middleware/security"
	"lapkeu/internal/middleware/trace"
	"lapkeu/internal/repository"
)

// Ledger is what the handlers need from the transaction service.
type Ledger interface {
	List(ctx context.Context) ([]core.Transaction, error)
	Create(ctx context.Context, d repository.Draft) (core.Transaction, error)
	Update(ctx context.Context, id string, p repository.Patch) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	OnChange(fn func())
}

// Options tunes the server. Zero values select the defaults.
type Options struct {
	CORSOrigin      string
	TrustedProxies  []string
	RateLimit       int
	RequirePIN      bool
	Debug           bool
	ReportCacheTTL  time.Duration
	ReportCacheSize int
	ReadyTimeout    time.Duration
	// EnvPresence backs /debug/env.
	EnvPresence func() map[string]any
	// Logger is put in every request context. Nil uses the slog default.
	Logger *applog.Logger
}

type Server struct {
	http.Server
	ledger Ledger
	gate   *auth.Gate
	opts   Options

	reportCache  *cache.LRUCache[[]byte]
	cacheManager *cache.Manager
	// reportGen changes on every invalidation so a report built from a
	// list loaded before a write is not cached.
	reportGen atomic.Uint64

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	started          time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware around ledger. Every route is
// mounted both at the root and under /api.
func NewServer(addr string, ledger Ledger, gate *auth.Gate, opts Options) (*Server, error) {
	if opts.ReportCacheSize <= 0 {
		opts.ReportCacheSize = 128
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = repository.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentHTTP})
	}

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ledger:           ledger,
		gate:             gate,
		opts:             opts,
		reportCache:      cache.NewLRUCache[[]byte](opts.ReportCacheSize, opts.ReportCacheTTL),
		cacheManager:     cache.NewManager(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		started:          time.Now(),
	}

	s.cacheManager.Register(s.reportCache)
	if opts.ReportCacheTTL > 0 {
		s.cacheManager.StartCleanup(opts.ReportCacheTTL * 4)
	}
	ledger.OnChange(s.InvalidateReports)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	transactions := http.Handler(http.HandlerFunc(s.handleTransactions))
	if s.opts.RequirePIN {
		transactions = s.gate.Middleware(rejectRequest)(transactions)
	}

	routes := map[string]http.Handler{
		"/transactions":      transactions,
		"/login":             http.HandlerFunc(s.handleLogin),
		"/reports/summary":   http.HandlerFunc(s.handleSummary),
		"/reports/analytics": http.HandlerFunc(s.handleAnalytics),
		"/reports/periodic":  http.HandlerFunc(s.handlePeriodic),
		"/calc":              http.HandlerFunc(s.handleCalc),
		"/healthz":           http.HandlerFunc(s.handleHealth),
		"/readyz":            http.HandlerFunc(s.handleReady),
	}
	if s.opts.Debug {
		routes["/debug/env"] = http.HandlerFunc(s.handleDebugEnv)
	}
	for path, h := range routes {
		mux.Handle(path, h)
		mux.Handle("/api"+path, h)
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	// Outermost first: trace, security headers, CORS, rate limit.
	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, limitedRequest, s.writeRateLimited)(h)
	h = applog.RequestIDMiddleware(trace.RequestID)(h)
	h = applog.Middleware(s.opts.Logger)(h)
	h = cors.Middleware(cors.Config{Origin: s.opts.CORSOrigin})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.securityDetector.Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	return h
}

// limitedRequest selects writes and PIN checks for rate limiting.
func limitedRequest(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return strings.HasSuffix(r.URL.Path, "/login")
}

func rejectRequest(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	writeError(w, status, msg)
}

func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	ip := s.securityDetector.ExtractClientIP(r)
	w.Header().Set("Retry-After", strconv.Itoa(s.rateLimiter.RetryAfter(ip)))
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

// InvalidateReports drops every cached report payload.
func (s *Server) InvalidateReports() {
	s.reportGen.Add(1)
	s.reportCache.Clear()
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
