package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_IsAllowed(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.IsAllowed("1.2.3.4"))
	}
	assert.False(t, rl.IsAllowed("1.2.3.4"))

	// Other clients keep their own budget.
	assert.True(t, rl.IsAllowed("5.6.7.8"))
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	assert.True(t, rl.IsAllowed("1.2.3.4"))
	assert.False(t, rl.IsAllowed("1.2.3.4"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.IsAllowed("1.2.3.4"))
}

func TestRateLimitMiddleware_GlobalLimit(t *testing.T) {
	handler := RateLimitMiddleware(2, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
		req.RemoteAddr = "1.2.3.4:555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	req.RemoteAddr = "1.2.3.4:555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitMiddleware_PathBudget(t *testing.T) {
	limits := []PathLimit{
		{Method: http.MethodPost, PathPrefix: "/api/v1/auth/login", MaxRequests: 1, Window: time.Minute},
	}
	handler := RateLimitMiddleware(100, time.Minute, limits)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "1.2.3.4:555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/v1/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/v1/auth/login"))

	// The path budget binds to its method and prefix only.
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/v1/auth/login"))
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/v1/members"))
}

func TestRateLimitMiddleware_ClientsIsolated(t *testing.T) {
	handler := RateLimitMiddleware(1, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	first.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	second.Header.Set("X-Forwarded-For", "10.0.0.2")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)
}
