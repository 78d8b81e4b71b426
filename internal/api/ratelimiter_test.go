package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticLimiter struct {
	allow bool
}

func (s *staticLimiter) Allow(string) bool {
	return s.allow
}

func TestRateLimitMiddlewareBlocksWhenLimiterDenies(t *testing.T) {
	middleware := rateLimitMiddleware(&staticLimiter{allow: false}, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler should not execute when rate limited")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRateLimitMiddlewarePassesWhenLimiterAllows(t *testing.T) {
	var called bool
	middleware := rateLimitMiddleware(&staticLimiter{allow: true}, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	middleware.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to execute when limiter allows")
	}
}

func TestNewTokenBucketLimiterUsesDefaults(t *testing.T) {
	limiter := newTokenBucketLimiter(0, 0)
	if limiter == nil {
		t.Fatalf("expected limiter instance")
	}
	if !limiter.Allow("10.0.0.1") {
		t.Fatalf("expected first request to be allowed")
	}
}

func TestClientLimiterIsPerClient(t *testing.T) {
	limiter := newTokenBucketLimiter(1, 1)

	if !limiter.Allow("10.0.0.1") {
		t.Fatalf("expected first request from client A to be allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("expected second request from client A to be limited")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatalf("expected client B to have its own bucket")
	}
}

func TestClientLimiterEvictsLeastRecentClient(t *testing.T) {
	limiter := newTokenBucketLimiter(0.001, 1).(*clientLimiter)

	if !limiter.Allow("10.0.0.1") {
		t.Fatalf("expected first request to be allowed")
	}
	for i := 1; i < maxTrackedClients; i++ {
		limiter.Allow(fmt.Sprintf("172.16.%d.%d", i/256, i%256))
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("expected exhausted client to stay limited while tracked")
	}

	limiter.Allow("192.0.2.200")
	if limiter.limiters.Len() != maxTrackedClients {
		t.Fatalf("expected %d tracked clients, got %d", maxTrackedClients, limiter.limiters.Len())
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("expected a new client not to reset an active client's bucket")
	}
	if limiter.limiters.Contains("172.16.0.1") {
		t.Fatalf("expected the least recently seen client to be evicted")
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	if got := clientKey(req); got != "192.0.2.7" {
		t.Fatalf("expected host part, got %q", got)
	}

	req.RemoteAddr = "unix-socket"
	if got := clientKey(req); got != "unix-socket" {
		t.Fatalf("expected raw address fallback, got %q", got)
	}
}
