package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Rate            float64                                      // tokens refilled per second
	Burst           int                                          // bucket size
	KeyFunc         func(r *http.Request) string                 // default: client IP
	OnLimit         func(w http.ResponseWriter, r *http.Request) // default: 429 problem
	CleanupInterval time.Duration                                // default: 1m
	MaxIdle         time.Duration                                // default: 5m
}

// RateLimit returns middleware that applies per-key rate limiting. Requests
// over the limit are answered with a 429 problem and a Retry-After header.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = func(w http.ResponseWriter, _ *http.Request) {
			writeErrorResponse(w, Error(http.StatusTooManyRequests, "rate limit exceeded"))
		}
	}

	store := &limiterStore{
		limit:    rate.Limit(cfg.Rate),
		burst:    cfg.Burst,
		interval: orDefault(cfg.CleanupInterval, time.Minute),
		maxIdle:  orDefault(cfg.MaxIdle, 5*time.Minute),
		entries:  make(map[string]*limiterEntry),
	}
	wait := retryAfter(cfg.Rate)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.allow(cfg.KeyFunc(r), time.Now()) {
				w.Header().Set("Retry-After", wait)
				cfg.OnLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterStore keeps one token bucket per client key. Buckets idle longer
// than maxIdle are swept at most once per interval.
type limiterStore struct {
	limit    rate.Limit
	burst    int
	interval time.Duration
	maxIdle  time.Duration

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (s *limiterStore) allow(key string, now time.Time) bool {
	s.mu.Lock()
	if now.Sub(s.lastSweep) >= s.interval {
		for k, e := range s.entries {
			if now.Sub(e.lastSeen) > s.maxIdle {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}
	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	s.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// retryAfter is the whole number of seconds until one token refills,
// never less than one.
func retryAfter(perSecond float64) string {
	if perSecond <= 0 {
		return "1"
	}
	return strconv.Itoa(max(1, int(math.Ceil(1/perSecond))))
}
