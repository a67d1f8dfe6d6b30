// Package ratelimit limits requests per client IP over fixed one-minute
// windows.
package ratelimit

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	applog "lapkeu/internal/log"
)

const (
	window = time.Minute
	// idleTTL is how long a client is remembered after its last request.
	idleTTL = 10 * time.Minute
)

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter counts requests per IP. A window opens at a client's first
// request and does not slide.
type Limiter struct {
	limit    int
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	windows map[string]*counter

	rejected atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

type counter struct {
	opened time.Time
	seen   time.Time
	hits   int
}

func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	rl := &Limiter{
		limit:    cfg.RequestsPerMinute,
		interval: cfg.CleanupInterval,
		now:      time.Now,
		windows:  make(map[string]*counter),
		stop:     make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow counts a request from ip and reports whether it fits in the
// current window.
func (rl *Limiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.windows[ip]
	if !ok || now.Sub(c.opened) >= window {
		rl.windows[ip] = &counter{opened: now, seen: now, hits: 1}
		return true
	}
	c.hits++
	c.seen = now
	if c.hits <= rl.limit {
		return true
	}
	rl.rejected.Add(1)
	return false
}

// RetryAfter is the number of whole seconds until ip's window resets.
func (rl *Limiter) RetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.windows[ip]
	if !ok {
		return 0
	}
	left := c.opened.Add(window).Sub(rl.now())
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

func (rl *Limiter) sweep() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanupStaleEntries()
		}
	}
}

func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleTTL)
	for ip, c := range rl.windows {
		if c.seen.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}

// ActiveClients is the number of IPs currently remembered.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

type Metrics struct {
	Rejected    int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		Rejected:    rl.rejected.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// Middleware limits requests for which limited returns true; a nil limited
// limits everything. onLimit writes the rejection; nil writes a plain 429.
func (rl *Limiter) Middleware(clientIP func(*http.Request) string, limited func(*http.Request) bool, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limited != nil && !limited(r) {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if rl.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit)
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, ip,
				applog.FieldPath, r.URL.Path)
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
