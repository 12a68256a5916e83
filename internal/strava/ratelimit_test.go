package strava

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the limiter sleeps
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(clock *fakeClock) *RateLimiter {
	r := NewRateLimiter()
	r.now = clock.Now
	r.sleep = clock.Sleep
	r.short.resetsAt = r.short.next(clock.now)
	r.daily.resetsAt = r.daily.next(clock.now)
	return r
}

func TestRateLimiter_MinInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	r := newTestLimiter(clock)

	require.NoError(t, r.Wait(context.Background()))
	require.NoError(t, r.Wait(context.Background()))

	assert.Equal(t, []time.Duration{150 * time.Millisecond}, clock.slept)
	short, daily := r.Status()
	assert.Equal(t, 98, short)
	assert.Equal(t, 998, daily)
}

func TestRateLimiter_WaitsForShortWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	r := newTestLimiter(clock)
	r.UpdateFromHeaders(http.Header{
		"X-Ratelimit-Usage": []string{"100,400"},
		"X-Ratelimit-Limit": []string{"100,1000"},
	})

	require.NoError(t, r.Wait(context.Background()))

	require.NotEmpty(t, clock.slept)
	assert.Equal(t, 15*time.Minute, clock.slept[0])
	short, daily := r.Status()
	assert.Equal(t, 99, short)
	assert.Equal(t, 599, daily)
}

func TestRateLimiter_Cancelled(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	r := newTestLimiter(clock)
	r.UpdateFromHeaders(http.Header{"X-Ratelimit-Usage": []string{"100,100"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.Canceled)
}

func TestParsePair(t *testing.T) {
	tests := []struct {
		in     string
		a, b   int
		wantOK bool
	}{
		{"34,512", 34, 512, true},
		{" 1 , 2 ", 1, 2, true},
		{"", 0, 0, false},
		{"12", 0, 0, false},
		{"x,2", 0, 0, false},
	}
	for _, tt := range tests {
		a, b, ok := parsePair(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.a, a, tt.in)
		assert.Equal(t, tt.b, b, tt.in)
	}
}
