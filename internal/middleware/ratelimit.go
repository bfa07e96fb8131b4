package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ashureev/wolfbot/internal/i18n"
	"github.com/ashureev/wolfbot/internal/identity"
	"golang.org/x/text/language"
)

// RateLimiter is a sliding-window limiter keyed by chat user.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow checks if a request is allowed for the given key.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	recent := r.fresh(r.requests[key], now.Add(-r.window))

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}
	r.requests[key] = append(recent, now)
	return true
}

func (r *RateLimiter) fresh(times []time.Time, cutoff time.Time) []time.Time {
	var out []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Evict drops keys with no request inside the window.
func (r *RateLimiter) Evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.window)
	removed := 0
	for key, times := range r.requests {
		if f := r.fresh(times, cutoff); len(f) == 0 {
			delete(r.requests, key)
			removed++
		} else {
			r.requests[key] = f
		}
	}
	return removed
}

// StartEviction periodically evicts idle keys until ctx is done.
func (r *RateLimiter) StartEviction(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Evict()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RateLimit rejects requests from users over their budget with 429. The
// message is localized per request, falling back to locale.
// It must run after identity.Middleware.
func RateLimit(rl *RateLimiter, locale language.Tag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := identity.UserIDFromContext(r.Context())
			if key == "" {
				key = identity.IPFromRequest(r)
			}
			if !rl.Allow(key) {
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				tag := i18n.ResolveTag(r, locale)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   i18n.KeyRateLimited,
					"message": i18n.Text(tag, i18n.KeyRateLimited),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
