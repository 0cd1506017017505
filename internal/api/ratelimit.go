// Per-client rate limiting for the bulk map endpoint, whose payload grows
// with the square of world size. Each client holds a token bucket that
// refills continuously, so a burst is absorbed and sustained polling settles
// at the refill rate.
package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const sweepInterval = 10 * time.Minute

// RateLimiter grants tokens to clients keyed by IP. rate is tokens added per
// second, burst the bucket ceiling (and the starting balance for a new
// client). Stale clients are swept lazily on the request path instead of by a
// background goroutine.
type RateLimiter struct {
	mu      sync.Mutex
	rate    float64
	burst   float64
	clients map[string]*clientBucket
	sweepAt time.Time
}

type clientBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter returns a limiter refilling rate tokens per second up to
// burst per client.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		rate:    rate,
		burst:   float64(burst),
		clients: make(map[string]*clientBucket),
		sweepAt: time.Now().Add(sweepInterval),
	}
}

// Allow spends one token for the client, reporting whether one was available.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.allowAt(ip, time.Now())
}

func (rl *RateLimiter) allowAt(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.sweepAt) {
		rl.sweep(now)
	}

	b, ok := rl.clients[ip]
	if !ok {
		b = &clientBucket{tokens: rl.burst}
		rl.clients[ip] = b
	} else {
		b.tokens += now.Sub(b.lastSeen).Seconds() * rl.rate
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter returns whole seconds until the client's next token, for the
// Retry-After header.
func (rl *RateLimiter) RetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[ip]
	if !ok || b.tokens >= 1 {
		return 0
	}
	return int(math.Ceil((1 - b.tokens) / rl.rate))
}

// sweep drops clients whose bucket has long since refilled to full. Caller
// holds the lock.
func (rl *RateLimiter) sweep(now time.Time) {
	idle := time.Duration(rl.burst/rl.rate) * time.Second
	if idle < sweepInterval {
		idle = sweepInterval
	}
	for ip, b := range rl.clients {
		if now.Sub(b.lastSeen) > idle {
			delete(rl.clients, ip)
		}
	}
	rl.sweepAt = now.Add(sweepInterval)
}

// Middleware wraps a handler, answering 429 with a Retry-After header once a
// client's bucket runs dry.
func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP resolves the requester's address, preferring the first hop in
// X-Forwarded-For when a proxy set it.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
