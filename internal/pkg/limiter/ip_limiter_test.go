package limiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	r.RemoteAddr = "203.0.113.7:5555"
	assert.Equal(t, "203.0.113.7", ClientIP(r))

	r.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", ClientIP(r))

	r.RemoteAddr = ""
	assert.Equal(t, "unknown_ip", ClientIP(r))
}

func TestMiddlewareRejectsAfterBurst(t *testing.T) {
	l := NewIPRateLimiter(t.Context(), rate.Limit(0.001), 2)

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "198.51.100.1:1234"
		handler.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "198.51.100.2:1234"
	assert.True(t, l.Allow(other))
}

func TestRetryAfterHeader(t *testing.T) {
	l := NewIPRateLimiter(t.Context(), rate.Limit(0.2), 1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var rec *httptest.ResponseRecorder
	for range 2 {
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	}

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestSweepDropsRefilledBuckets(t *testing.T) {
	l := NewIPRateLimiter(t.Context(), rate.Limit(1), 1)

	l.GetLimiter("198.51.100.1")
	l.GetLimiter("198.51.100.2").Allow()

	removed, remaining := l.sweep(time.Now())
	assert.Equal(t, 1, removed, "the untouched bucket is full")
	assert.Equal(t, 1, remaining)

	removed, remaining = l.sweep(time.Now().Add(time.Minute))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, remaining)
}

func TestSweepStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewIPRateLimiter(ctx, rate.Limit(1), 1)

	select {
	case <-l.swept:
		t.Fatal("sweep goroutine exited before cancellation")
	default:
	}

	cancel()

	select {
	case <-l.swept:
	case <-time.After(time.Second):
		t.Fatal("sweep goroutine still running after cancellation")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, l.Allow(r), "limiting keeps working without the sweep")
	assert.False(t, l.Allow(r))
}
