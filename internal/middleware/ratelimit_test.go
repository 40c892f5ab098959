package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Time, time.Duration) (int64, error) {
	return 0, errors.New("store down")
}

func TestRateLimiterAllow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(NewMemoryLimitStore(), clock, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "user:a")
		if err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "user:a")
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if allowed {
		t.Error("fourth request in the window should be denied")
	}

	// Other keys are unaffected.
	allowed, _ = limiter.Allow(ctx, "user:b")
	if !allowed {
		t.Error("different key should have its own window")
	}

	// A new window resets the count.
	clock.advance(time.Minute)
	allowed, _ = limiter.Allow(ctx, "user:a")
	if !allowed {
		t.Error("request in a fresh window should be allowed")
	}
}

func TestRateLimiterWindowBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 59, 0, time.UTC)}
	limiter := NewRateLimiter(NewMemoryLimitStore(), clock, 1, time.Minute)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "k"); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "k"); allowed {
		t.Fatal("second request in same window should be denied")
	}

	// One second later the fixed window rolls over.
	clock.advance(time.Second)
	if allowed, _ := limiter.Allow(ctx, "k"); !allowed {
		t.Error("request after window rollover should be allowed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(NewMemoryLimitStore(), clock, 2, time.Minute)

	handler := limiter.Middleware(KeyByIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest := func() int {
		req := httptest.NewRequest(http.MethodPost, "/payouts/sweep/release", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := doRequest(); code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", code)
	}
	if code := doRequest(); code != http.StatusOK {
		t.Fatalf("second request: got %d, want 200", code)
	}
	if code := doRequest(); code != http.StatusTooManyRequests {
		t.Fatalf("third request: got %d, want 429", code)
	}
}

func TestRateLimitMiddlewareFailsOpen(t *testing.T) {
	limiter := NewRateLimiter(failingStore{}, nil, 1, time.Minute)

	handler := limiter.Middleware(KeyByIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("store errors must fail open, got %d", rec.Code)
		}
	}
}
