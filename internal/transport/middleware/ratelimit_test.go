package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand so refill tests do not sleep.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(time.Hour)
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/enrich?word=x", nil)
	req.RemoteAddr = remote
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	handler := rl.Limit(10)(okHandler())

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1234").Code, "request %d should be allowed", i)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	handler := rl.Limit(5)(okHandler())

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1234").Code)
	}

	rec := hit(handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "13", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimiter_PortIgnored(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	handler := rl.Limit(2)(okHandler())

	hit(handler, "1.1.1.1:1000")
	hit(handler, "1.1.1.1:2000")
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "1.1.1.1:3000").Code)
}

func TestRateLimiter_DifferentClientsIndependent(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)
	handler := rl.Limit(2)(okHandler())

	hit(handler, "1.1.1.1:1234")
	hit(handler, "1.1.1.1:1234")
	assert.Equal(t, http.StatusOK, hit(handler, "2.2.2.2:5678").Code)
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(t)
	handler := rl.Limit(60)(okHandler()) // one token per second

	for i := 0; i < 60; i++ {
		hit(handler, "5.5.5.5:1")
	}
	require.Equal(t, http.StatusTooManyRequests, hit(handler, "5.5.5.5:1").Code)

	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, http.StatusOK, hit(handler, "5.5.5.5:1").Code)
}

func TestRateLimiter_DisabledLimitIsNil(t *testing.T) {
	t.Parallel()
	rl, _ := newTestLimiter(t)

	assert.Nil(t, rl.Limit(0))
	handler := Chain(rl.Limit(0))(okHandler())
	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, hit(handler, "9.9.9.9:1").Code)
	}
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	t.Parallel()
	rl, clock := newTestLimiter(t)
	handler := rl.Limit(5)(okHandler())

	hit(handler, "7.7.7.7:1")
	clock.Advance(idleBucketTTL + time.Second)
	rl.sweep(clock.Now())

	_, ok := rl.buckets.Load("7.7.7.7")
	assert.False(t, ok)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
