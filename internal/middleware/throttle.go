package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const clientIdleTimeout = 10 * time.Minute

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

type throttler struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     rate.Limit
	burst   int
}

func newThrottler(rps float64, burst int) *throttler {
	t := &throttler{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
	go t.evictIdle()
	return t
}

func (t *throttler) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clients[ip]
	if !ok {
		c = &client{bucket: rate.NewLimiter(t.rps, t.burst)}
		t.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.bucket.Allow()
}

func (t *throttler) evictIdle() {
	ticker := time.NewTicker(clientIdleTimeout)
	defer ticker.Stop()
	for range ticker.C {
		t.mu.Lock()
		for ip, c := range t.clients {
			if time.Since(c.lastSeen) > clientIdleTimeout {
				delete(t.clients, ip)
			}
		}
		t.mu.Unlock()
	}
}

// Throttle returns middleware applying a coarse per-client token bucket to
// the whole router. It backstops the stricter fixed-window governor on the
// credential endpoints.
func Throttle(rps float64, burst int) func(http.Handler) http.Handler {
	t := newThrottler(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !t.allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeJSONMessage(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
