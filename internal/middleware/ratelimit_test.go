package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	now := time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	handler := limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	call := func(ip string) int {
		req := httptest.NewRequest("GET", "/api/vehicles/owner", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("burst then exceeded", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, call("10.0.0.1"))
		assert.Equal(t, http.StatusOK, call("10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	})

	t.Run("clients are independent", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, call("10.0.0.2"))
	})

	t.Run("tokens refill", func(t *testing.T) {
		now = now.Add(time.Second)
		assert.Equal(t, http.StatusOK, call("10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	})

	t.Run("idle clients are evicted", func(t *testing.T) {
		now = now.Add(2 * idleLimiterTTL)
		call("10.0.0.3")
		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		assert.Len(t, limiter.clients, 1)
	})
}

func TestRateLimiter_ClientIP(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	require.NoError(t, limiter.TrustProxies([]string{"10.0.0.0/8", "192.168.1.10"}))

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"untrusted peer ignores forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "198.51.100.4:80", "198.51.100.4"},
		{"untrusted peer ignores real ip", map[string]string{"X-Real-IP": "203.0.113.8"}, "198.51.100.4:80", "198.51.100.4"},
		{"trusted proxy forwards", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.1.2.3:80", "203.0.113.7"},
		{"spoofed leftmost hop is skipped", map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.7, 10.0.0.5"}, "10.1.2.3:80", "203.0.113.7"},
		{"all hops trusted", map[string]string{"X-Forwarded-For": "10.0.0.9, 10.0.0.5"}, "192.168.1.10:80", "10.0.0.9"},
		{"trusted proxy real ip", map[string]string{"X-Real-IP": "203.0.113.8"}, "192.168.1.10:80", "203.0.113.8"},
		{"trusted proxy without headers", nil, "10.1.2.3:80", "10.1.2.3"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:5555", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, limiter.clientIP(req))
		})
	}
}

func TestRateLimiter_RotatingForwardedForDoesNotEvade(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	handler := limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.4:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_TrustProxiesRejectsGarbage(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	assert.Error(t, limiter.TrustProxies([]string{"not-an-ip"}))
	assert.Error(t, limiter.TrustProxies([]string{"10.0.0.0/99"}))
	assert.NoError(t, limiter.TrustProxies([]string{" ", "::1", "fd00::/8"}))
	assert.Len(t, limiter.trusted, 2)
}
