package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/sharded-go/internal/core/domain"
	"github.com/yndnr/sharded-go/pkg/sharded"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // Unix nanoseconds
}

// RateLimiter keeps one token bucket per client IP in a sharded map, so
// lookups for different clients rarely contend.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	clients *sharded.Map[string, *clientLimiter]
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst for each client.
func NewRateLimiter(rps float64, burst int, opts ...sharded.Option) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: sharded.NewMap[string, *clientLimiter](opts...),
		now:     time.Now,
	}
}

// Allow reports whether client may make a request now.
func (l *RateLimiter) Allow(client string) bool {
	now := l.now()
	c, _ := l.clients.GetOrInsertFunc(client, func() *clientLimiter {
		return &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
	c.lastSeen.Store(now.UnixNano())
	return c.limiter.AllowN(now, 1)
}

// Clients returns the number of tracked clients.
func (l *RateLimiter) Clients() int {
	return l.clients.Len()
}

// Sweep forgets clients idle for longer than idle and returns how many
// were removed.
func (l *RateLimiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle).UnixNano()

	var stale []string
	l.clients.Range(func(client string, c *clientLimiter) bool {
		if c.lastSeen.Load() < cutoff {
			stale = append(stale, client)
		}
		return true
	})

	removed := 0
	for _, client := range stale {
		g := l.clients.Write(client)
		if c, ok := g.Get(); ok && c.lastSeen.Load() < cutoff {
			g.Remove()
			removed++
		}
		g.Release()
	}
	return removed
}

// Run sweeps idle clients every interval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(interval)
		}
	}
}

// Middleware rejects requests over the client's rate with 429.
func (l *RateLimiter) Middleware() Middleware {
	retryAfter := "1"
	if l.limit > 0 && l.limit < 1 {
		retryAfter = strconv.Itoa(int(1/float64(l.limit)) + 1)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(getClientIP(r)) {
				w.Header().Set("Retry-After", retryAfter)
				writeError(w, r, http.StatusTooManyRequests, domain.ErrRateLimited.Code, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
