package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Routes with their own budget. Import parses whole files and Sheets export
// spends Google API quota, so each is counted separately per client.
const (
	RouteImport       = "import"
	RouteSheetsExport = "sheets_export"
)

// Rule allows Requests calls per Window.
type Rule struct {
	Requests int
	Window   time.Duration
}

// Config holds rate limiter configuration
type Config struct {
	Rules           map[string]Rule
	CleanupInterval time.Duration
}

// DefaultConfig returns the budgets used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Rules: map[string]Rule{
			RouteImport:       {Requests: 60, Window: time.Minute},
			RouteSheetsExport: {Requests: 6, Window: time.Minute},
		},
		CleanupInterval: 5 * time.Minute,
	}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is the time left in the current window.
	RetryAfter time.Duration
}

type windowKey struct {
	route    string
	clientIP string
}

type window struct {
	start    time.Time
	requests int
}

// Limiter counts requests per route and client in fixed windows.
type Limiter struct {
	mu           sync.Mutex
	rules        map[string]Rule
	windows      map[windowKey]*window
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	cleanupInterval time.Duration
	now             func() time.Time
}

// NewLimiter creates a limiter and starts its cleanup loop. Routes missing
// from cfg.Rules, or with a non-positive budget, fall back to the defaults.
func NewLimiter(cfg Config) *Limiter {
	defaults := DefaultConfig()
	rules := make(map[string]Rule, len(defaults.Rules))
	for route, rule := range defaults.Rules {
		rules[route] = rule
	}
	for route, rule := range cfg.Rules {
		if rule.Requests <= 0 {
			continue
		}
		if rule.Window <= 0 {
			rule.Window = time.Minute
		}
		rules[route] = rule
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}

	rl := &Limiter{
		rules:           rules,
		windows:         make(map[windowKey]*window),
		stopCleanup:     make(chan struct{}),
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
	}
	go rl.startCleanup()
	return rl
}

// Allow counts one request from clientIP against route. Routes without a
// rule are unlimited.
func (rl *Limiter) Allow(route, clientIP string) Decision {
	rule, ok := rl.rules[route]
	if !ok {
		return Decision{Allowed: true}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	key := windowKey{route: route, clientIP: clientIP}
	w, exists := rl.windows[key]
	if !exists || !now.Before(w.start.Add(rule.Window)) {
		w = &window{start: now}
		rl.windows[key] = w
	}
	w.requests++

	return Decision{
		Allowed:    w.requests <= rule.Requests,
		Limit:      rule.Requests,
		Remaining:  max(rule.Requests-w.requests, 0),
		RetryAfter: w.start.Add(rule.Window).Sub(now),
	}
}

// RetryAfterSeconds renders d.RetryAfter for the Retry-After header, rounded
// up and never below one second.
func (d Decision) RetryAfterSeconds() string {
	secs := int64((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupExpired()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupExpired drops windows that have run out.
func (rl *Limiter) cleanupExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, w := range rl.windows {
		if !now.Before(w.start.Add(rl.rules[key.route].Window)) {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of tracked route and client pairs.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Middleware limits route per client. Every counted response carries the
// X-RateLimit headers; a refused one also gets Retry-After and goes to
// onLimit when set.
func (rl *Limiter) Middleware(route string, extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request, Decision)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := rl.Allow(route, extractIP(r))
			if d.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			}
			if !d.Allowed {
				w.Header().Set("Retry-After", d.RetryAfterSeconds())
				if onLimit != nil {
					onLimit(w, r, d)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
