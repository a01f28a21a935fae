package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/todo-api-nosql/internal/pkg/metrics"
)

// CounterStore counts requests per key inside fixed windows.
type CounterStore interface {
	// Increment adds one hit for key and returns the count in the current
	// window plus the time left until it resets.
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// MemoryCounterStore is a process-local CounterStore. Counts reset on restart.
type MemoryCounterStore struct {
	mu    sync.Mutex
	data  map[string]*memoryCounter
	clock func() time.Time
}

// NewMemoryCounterStore builds a store; a nil clock means time.Now.
func NewMemoryCounterStore(clock func() time.Time) *MemoryCounterStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCounterStore{data: make(map[string]*memoryCounter), clock: clock}
}

func (s *MemoryCounterStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.data[key]
	if !ok || now.After(c.windowEnd) {
		c = &memoryCounter{windowEnd: now.Add(window)}
		s.data[key] = c
	}
	c.count++
	return c.count, c.windowEnd.Sub(now), nil
}

// Sweep drops counters whose window has ended.
func (s *MemoryCounterStore) Sweep() {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.data {
		if now.After(c.windowEnd) {
			delete(s.data, k)
		}
	}
}

// WindowLimit allows max requests per client IP per window. Store errors let
// the request through.
func WindowLimit(store CounterStore, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, ttl, err := store.Increment(r.Context(), realIP(r), window)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			remaining := max - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if count > max {
				retryAfter := int(math.Ceil(ttl.Seconds()))
				metrics.RateLimited.WithLabelValues("window").Inc()
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
					"success":    false,
					"message":    "Too many requests. Please try again later.",
					"retryAfter": retryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
