package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Strava allows 100 requests per 15 minutes and 1000 per day by default.
// Both limits are refreshed from the response headers.

// window is one rate limit bucket
type window struct {
	limit    int
	usage    int
	resetsAt time.Time
	next     func(now time.Time) time.Time
}

func (w *window) roll(now time.Time) {
	if !now.Before(w.resetsAt) {
		w.usage = 0
		w.resetsAt = w.next(now)
	}
}

// RateLimiter manages Strava API rate limits
type RateLimiter struct {
	mu sync.Mutex

	short window
	daily window

	minInterval time.Duration
	lastRequest time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a new rate limiter with Strava's limits
func NewRateLimiter() *RateLimiter {
	r := &RateLimiter{
		short: window{
			limit: 100,
			next:  func(now time.Time) time.Time { return now.Add(15 * time.Minute) },
		},
		daily: window{
			limit: 1000,
			next:  func(now time.Time) time.Time { return now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour) },
		},
		minInterval: 150 * time.Millisecond,
		now:         time.Now,
		sleep:       sleepCtx,
	}
	now := r.now()
	r.short.resetsAt = r.short.next(now)
	r.daily.resetsAt = r.daily.next(now)
	return r
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until a request can be made without exceeding rate limits
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, w := range []*window{&r.short, &r.daily} {
		w.roll(r.now())
		if w.usage < w.limit {
			continue
		}
		if err := r.sleepUnlocked(ctx, w.resetsAt.Sub(r.now())); err != nil {
			return err
		}
		w.roll(r.now())
	}

	if elapsed := r.now().Sub(r.lastRequest); elapsed < r.minInterval {
		if err := r.sleepUnlocked(ctx, r.minInterval-elapsed); err != nil {
			return err
		}
	}

	r.short.usage++
	r.daily.usage++
	r.lastRequest = r.now()
	return nil
}

// sleepUnlocked releases the lock while waiting
func (r *RateLimiter) sleepUnlocked(ctx context.Context, d time.Duration) error {
	r.mu.Unlock()
	defer r.mu.Lock()
	return r.sleep(ctx, d)
}

// UpdateFromHeaders updates rate limit state from Strava response headers.
// Strava returns X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512".
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.short.usage, r.daily.usage = short, daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.short.limit, r.daily.limit = short, daily
	}
}

func parsePair(v string) (int, int, bool) {
	parts := strings.Split(v, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}

// Status returns the requests left in the short and daily windows
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.limit - r.short.usage, r.daily.limit - r.daily.usage
}
