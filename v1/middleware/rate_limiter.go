package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter implements a simple in-memory sliding-window rate limiter
type RateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	maxReqs  int
	window   time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		maxReqs:  maxRequests,
		window:   window,
	}
}

// IsAllowed checks if a request identified by key is allowed
func (rl *RateLimiter) IsAllowed(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()

	// Drop requests that fell out of the window
	var validRequests []time.Time
	for _, reqTime := range rl.requests[key] {
		if now.Sub(reqTime) < rl.window {
			validRequests = append(validRequests, reqTime)
		}
	}

	if len(validRequests) >= rl.maxReqs {
		rl.requests[key] = validRequests
		return false
	}

	validRequests = append(validRequests, now)
	rl.requests[key] = validRequests
	return true
}

// PathLimit binds a tighter rate limit to a method and path prefix. Abuse-
// sensitive endpoints (login, registration, attendance marking) get their own
// budgets on top of the global one.
type PathLimit struct {
	Method      string
	PathPrefix  string
	MaxRequests int
	Window      time.Duration
}

// DefaultPathLimits are the per-endpoint budgets applied by the API.
func DefaultPathLimits() []PathLimit {
	return []PathLimit{
		{Method: http.MethodPost, PathPrefix: "/api/v1/auth/login", MaxRequests: 5, Window: 5 * time.Minute},
		{Method: http.MethodPost, PathPrefix: "/api/v1/staff", MaxRequests: 3, Window: 10 * time.Minute},
		{Method: http.MethodPost, PathPrefix: "/api/v1/members", MaxRequests: 10, Window: time.Minute},
		{Method: http.MethodPost, PathPrefix: "/api/v1/attendance", MaxRequests: 20, Window: time.Minute},
	}
}

type pathLimiter struct {
	limit   PathLimit
	limiter *RateLimiter
}

// RateLimitMiddleware enforces a global per-IP limit plus any per-path
// limits. Path limits are keyed by IP and path prefix so one hot endpoint
// cannot eat another's budget.
func RateLimitMiddleware(maxRequests int, window time.Duration, pathLimits []PathLimit) func(http.Handler) http.Handler {
	global := NewRateLimiter(maxRequests, window)
	limiters := make([]pathLimiter, 0, len(pathLimits))
	for _, pl := range pathLimits {
		limiters = append(limiters, pathLimiter{
			limit:   pl,
			limiter: NewRateLimiter(pl.MaxRequests, pl.Window),
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			if !global.IsAllowed(clientIP) {
				slog.Warn("Rate limit exceeded", "ip", clientIP, "path", r.URL.Path)
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			for i := range limiters {
				pl := &limiters[i]
				if r.Method != pl.limit.Method || !strings.HasPrefix(r.URL.Path, pl.limit.PathPrefix) {
					continue
				}
				if !pl.limiter.IsAllowed(clientIP + " " + pl.limit.PathPrefix) {
					slog.Warn("Endpoint rate limit exceeded",
						"ip", clientIP,
						"path", r.URL.Path,
						"limit", pl.limit.MaxRequests,
						"window", pl.limit.Window)
					http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
