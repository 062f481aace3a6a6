package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/mindlab-health/caregrid/pkg/middleware"
	"github.com/mindlab-health/caregrid/pkg/storage"
)

func newTestRedis(t *testing.T) *storage.RedisClient {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := storage.NewRedisClient(storage.Config{RedisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	return client
}

func TestRateLimiterAllow(t *testing.T) {
	rl := middleware.NewRateLimiter(&middleware.RateLimitConfig{
		RequestsPerWindow: 3,
		WindowDuration:    time.Minute,
		BurstSize:         0,
	})

	for i := 0; i < 3; i++ {
		if !rl.Allow("caller") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("caller") {
		t.Fatal("request over the limit should be denied")
	}
	// A different key has its own bucket.
	if !rl.Allow("other") {
		t.Fatal("independent key should be allowed")
	}
}

func TestRateLimiterRemaining(t *testing.T) {
	rl := middleware.NewRateLimiter(&middleware.RateLimitConfig{
		RequestsPerWindow: 5,
		WindowDuration:    time.Minute,
		BurstSize:         2,
	})

	if got := rl.Remaining("fresh"); got != 7 {
		t.Fatalf("expected full quota 7 for unseen key, got %d", got)
	}
	rl.Allow("fresh")
	if got := rl.Remaining("fresh"); got != 6 {
		t.Fatalf("expected 6 after one request, got %d", got)
	}
}

func TestRateLimitMiddlewareHeaders(t *testing.T) {
	m := middleware.NewRateLimitMiddlewareWithConfig(&middleware.RateLimitConfig{
		RequestsPerWindow: 2,
		WindowDuration:    time.Minute,
		BurstSize:         0,
	})
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "2" {
		t.Fatalf("unexpected limit header %q", rec.Header().Get("X-RateLimit-Limit"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Fatalf("unexpected remaining header %q", rec.Header().Get("X-RateLimit-Remaining"))
	}

	handler.ServeHTTP(httptest.NewRecorder(), req)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after quota exhausted, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := middleware.NewRateLimiter(&middleware.RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Millisecond,
		BurstSize:         0,
	})
	rl.Allow("ephemeral")
	time.Sleep(5 * time.Millisecond)
	rl.Cleanup()
	// After cleanup the key reads as unseen again.
	if got := rl.Remaining("ephemeral"); got != 1 {
		t.Fatalf("expected quota restored after cleanup, got %d", got)
	}
}

func TestDistributedRateLimiterAllow(t *testing.T) {
	redis := newTestRedis(t)
	ctx := context.Background()

	rl := middleware.NewDistributedRateLimiter(redis, &middleware.RateLimitConfig{
		RequestsPerWindow: 2,
		WindowDuration:    time.Minute,
	}, "test:rl")

	for i := 0; i < 2; i++ {
		allowed, err := rl.Allow(ctx, "caller")
		if err != nil {
			t.Fatalf("allow failed: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	allowed, err := rl.Allow(ctx, "caller")
	if err != nil {
		t.Fatalf("allow failed: %v", err)
	}
	if allowed {
		t.Fatal("request over the window limit should be denied")
	}

	remaining, err := rl.Remaining(ctx, "caller")
	if err != nil {
		t.Fatalf("remaining failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", remaining)
	}

	if err := rl.Reset(ctx, "caller"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	allowed, err = rl.Allow(ctx, "caller")
	if err != nil || !allowed {
		t.Fatalf("expected fresh quota after reset, got %v %v", allowed, err)
	}
}

func TestDistributedRateLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := storage.NewRedisClient(storage.Config{RedisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	mr.Close()

	rl := middleware.NewDistributedRateLimiter(client, nil, "")
	allowed, err := rl.Allow(context.Background(), "caller")
	if err == nil {
		t.Fatal("expected error with redis down")
	}
	if !allowed {
		t.Fatal("limiter should report allowed alongside the error")
	}
}

func TestDistributedRateLimitMiddleware(t *testing.T) {
	redis := newTestRedis(t)
	m := middleware.NewDistributedRateLimitMiddleware(redis)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:6000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Fatal("expected rate limit headers")
	}
	if err := m.HealthCheck(context.Background()); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
}
