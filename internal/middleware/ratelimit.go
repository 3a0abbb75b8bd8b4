package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterStore keeps one token bucket per client key. It is injected into the
// middleware and owned by the caller, so every process (and every test) gets
// its own explicitly-lifetimed instance.
type LimiterStore struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*client
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewLimiterStore(eventsPerWindow int, window time.Duration) *LimiterStore {
	if eventsPerWindow < 1 {
		eventsPerWindow = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LimiterStore{
		limit:   rate.Limit(float64(eventsPerWindow) / window.Seconds()),
		burst:   eventsPerWindow,
		clients: make(map[string]*client),
	}
}

func (s *LimiterStore) Allow(key string) bool {
	s.mu.Lock()
	c, ok := s.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = c
	}
	c.seen = time.Now()
	s.mu.Unlock()
	return c.lim.Allow()
}

// Sweep drops buckets idle longer than maxIdle. The owner runs it
// periodically; the store spawns no goroutines of its own.
func (s *LimiterStore) Sweep(maxIdle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	for key, c := range s.clients {
		if c.seen.Before(cutoff) {
			delete(s.clients, key)
		}
	}
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func RateLimit(store *LimiterStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.URL.Path
			if !store.Allow(key) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
