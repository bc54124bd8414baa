package server

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipThrottle rate limits requests per remote IP using a token bucket per
// address. Idle buckets are evicted so the map does not grow unbounded.
type ipThrottle struct {
	ratePerSecond rate.Limit
	burst         int

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const visitorTTL = 10 * time.Minute

func newIPThrottle(ratePerSecond float64, burst int) *ipThrottle {
	return &ipThrottle{
		ratePerSecond: rate.Limit(ratePerSecond),
		burst:         burst,
		visitors:      make(map[string]*visitor),
	}
}

// allow reports whether a request from addr may proceed.
func (t *ipThrottle) allow(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	v, ok := t.visitors[host]
	if !ok {
		t.evictStaleLocked(now)
		v = &visitor{limiter: rate.NewLimiter(t.ratePerSecond, t.burst)}
		t.visitors[host] = v
	}
	v.lastSeen = now

	return v.limiter.Allow()
}

func (t *ipThrottle) evictStaleLocked(now time.Time) {
	for host, v := range t.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(t.visitors, host)
		}
	}
}

// middleware rejects over-limit requests with 429.
func (t *ipThrottle) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.allow(r.RemoteAddr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
