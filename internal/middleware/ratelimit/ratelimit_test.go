package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute}).WithClock(clock.Now)
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestLimiterAllow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("owner:1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("owner:1") {
		t.Fatal("fourth request in the window should be rejected")
	}
	if !rl.Allow("owner:2") {
		t.Fatal("other keys have their own window")
	}

	clock.t = clock.t.Add(time.Minute)
	if !rl.Allow("owner:1") {
		t.Fatal("new window should allow again")
	}
	if got := rl.GetMetrics().Rejected; got != 1 {
		t.Errorf("rejected = %d, want 1", got)
	}
}

func TestLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 10)
	rl.Allow("a")
	clock.t = clock.t.Add(5 * time.Minute)
	rl.Allow("b")
	clock.t = clock.t.Add(6 * time.Minute)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("active = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	h := rl.Middleware(func(r *http.Request) string { return r.Header.Get("X-Owner-ID") }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/entries", nil)
		req.Header.Set("X-Owner-ID", "1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d status = %d, want %d", i+1, rr.Code, want)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
