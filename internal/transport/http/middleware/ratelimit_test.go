package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestClientIP_StripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	assert.Equal(t, "192.168.1.1", clientIP(req))
}

func TestClientIP_NoPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1"
	assert.Equal(t, "192.168.1.1", clientIP(req))
}

func TestClientIP_IgnoresForwardingHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	req.Header.Set("X-Real-Ip", "2.2.2.2")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestLimit_RejectsAfterBurst(t *testing.T) {
	rl := NewRateLimiter(t.Context(), rate.Limit(0.001), 2)
	h := rl.Limit(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/users/verify", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLimit_RotatingForwardedForSharesOneBucket(t *testing.T) {
	rl := NewRateLimiter(t.Context(), rate.Limit(0.001), 1)
	h := rl.Limit(http.HandlerFunc(okHandler))

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/users/verify", nil)
		req.RemoteAddr = fmt.Sprintf("203.0.113.9:%d", 40000+i)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Real-Ip", fmt.Sprintf("192.0.2.%d", i))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code == http.StatusOK {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
}

func TestLimit_BehindRealIP_UsesForwardedClient(t *testing.T) {
	rl := NewRateLimiter(t.Context(), rate.Limit(0.001), 1)
	h := chimiddleware.RealIP(rl.Limit(http.HandlerFunc(okHandler)))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/token", nil)
		req.RemoteAddr = "10.0.0.254:443"
		req.Header.Set("X-Forwarded-For", forwarded)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
}

func TestLimit_SeparateBucketsPerClient(t *testing.T) {
	rl := NewRateLimiter(t.Context(), rate.Limit(0.001), 1)
	h := rl.Limit(http.HandlerFunc(okHandler))

	for _, ip := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/token", nil)
		req.RemoteAddr = ip
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestLimit_SeparateBucketsPerRoute(t *testing.T) {
	rl := NewRateLimiter(t.Context(), rate.Limit(0.001), 1)
	h := rl.Limit(http.HandlerFunc(okHandler))

	for _, path := range []string{"/v1/token", "/v1/users/verify"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.0.0.1:1"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}
