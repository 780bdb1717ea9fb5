/*
Package limiter throttles the bridge per client IP.

Each IP gets its own token bucket (rate.Limiter). A background sweep drops buckets that
have refilled completely, since such a client is indistinguishable from a new one.
*/
package limiter

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"nickchat/internal/pkg/errs"
	"nickchat/internal/pkg/logx"
	"nickchat/internal/pkg/resp"

	"golang.org/x/time/rate"
)

// sweepInterval is how often idle buckets are dropped.
const sweepInterval = 3 * time.Minute

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu sync.RWMutex

	// limits maps client IP to its bucket.
	limits map[string]*rate.Limiter

	// r is the refill rate in tokens per second.
	r rate.Limit

	// b is the bucket size.
	b int

	// swept is closed once the sweep goroutine has returned.
	swept chan struct{}
}

// NewIPRateLimiter returns a limiter allowing r events per second with bursts of b per IP,
// and starts its sweep goroutine. The goroutine runs until ctx is cancelled; the limiter
// keeps working afterwards, it just stops forgetting idle IPs.
func NewIPRateLimiter(ctx context.Context, r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		swept:  make(chan struct{}),
	}

	go i.sweepLoop(ctx)

	return i
}

// GetLimiter returns the bucket of ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, ok := i.limits[ip]
	i.mu.RUnlock()
	if ok {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if limiter, ok = i.limits[ip]; !ok {
		limiter = rate.NewLimiter(i.r, i.b)
		i.limits[ip] = limiter
	}
	return limiter
}

func (i *IPRateLimiter) sweepLoop(ctx context.Context) {
	defer close(i.swept)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, remaining := i.sweep(now)
			logx.Debug("Rate limiter cleanup finished.", "removed", removed, "remaining", remaining)
		}
	}
}

// sweep drops every bucket that is full at now.
func (i *IPRateLimiter) sweep(now time.Time) (removed, remaining int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for ip, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, ip)
			removed++
		}
	}

	return removed, len(i.limits)
}

// ClientIP extracts the host part of the request's remote address.
// RealIP middleware, when installed, has already rewritten RemoteAddr from proxy headers.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if ip == "" {
		ip = "unknown_ip"
	}

	return ip
}

// Allow reports whether the request's client IP still has a token available.
func (i *IPRateLimiter) Allow(r *http.Request) bool {
	return i.GetLimiter(ClientIP(r)).Allow()
}

// Middleware rejects requests over the limit with 429 and a Retry-After hint.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.Allow(r) {
			if i.r > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(i.r)))))
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
