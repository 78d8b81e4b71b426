package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/aetb-config/internal/metrics"
)

func TestLoggingMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	var called bool
	handler := loggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	handler := recoveryMiddleware(logger, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
}

func TestResponseRecorderWriteHeader(t *testing.T) {
	underlying := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: underlying}
	rec.WriteHeader(http.StatusTeapot)

	if rec.status != http.StatusTeapot {
		t.Fatalf("expected status to be recorded")
	}
	if underlying.Code != http.StatusTeapot {
		t.Fatalf("expected status to propagate to ResponseWriter")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	env := setupTestRouter(t, "", nil)

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	if _, err := uuid.Parse(rec.Header().Get("X-Request-ID")); err != nil {
		t.Fatalf("expected generated UUID request id, got %q", rec.Header().Get("X-Request-ID"))
	}

	rec = env.do(t, http.MethodGet, "/api/health", http.Header{"X-Request-Id": {"trace-42"}})
	if got := rec.Header().Get("X-Request-ID"); got != "trace-42" {
		t.Fatalf("expected caller request id to be echoed, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestRouter(t, "", nil)

	rec := env.do(t, http.MethodOptions, "/api/config/refresh", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS headers on preflight")
	}
}

func TestWithRateLimiterOptionAppliesLimiter(t *testing.T) {
	env := setupTestRouter(t, "", nil, WithRateLimiter(&staticLimiter{allow: false}))

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block request, got %d", rec.Code)
	}
}

func TestWithRateLimitDisablesLimiterWhenZero(t *testing.T) {
	env := setupTestRouter(t, "", nil, WithRateLimiter(&staticLimiter{allow: false}), WithRateLimit(0, 0))

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter to be disabled, got %d", rec.Code)
	}
}

func TestWithRateLimitEnforcesLimit(t *testing.T) {
	env := setupTestRouter(t, "", nil, WithRateLimit(1, 1))

	if rec := env.do(t, http.MethodGet, "/api/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/health", nil); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block second request, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t, "", nil, WithMetrics(metrics.New()))

	env.do(t, http.MethodGet, "/api/config/risk.stop_loss_pct", nil)
	env.do(t, http.MethodGet, "/nowhere", nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`route="/api/config/{key}",status="200"`,
		`route="unmatched",status="404"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics to contain %q, got:\n%s", want, body)
		}
	}
}

func TestMetricsEndpointDisabledByDefault(t *testing.T) {
	env := setupTestRouter(t, "", nil)

	if rec := env.do(t, http.MethodGet, "/metrics", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected /metrics to be absent without WithMetrics, got %d", rec.Code)
	}
}

type recordingMetrics struct {
	routes []string
}

func (r *recordingMetrics) ObserveRequest(_ string, route string, _ int, _ time.Duration) {
	r.routes = append(r.routes, route)
}

func (r *recordingMetrics) Handler() http.Handler { return http.NotFoundHandler() }

func TestMetricsMiddlewareUsesPattern(t *testing.T) {
	rm := &recordingMetrics{}
	env := setupTestRouter(t, "", nil, WithMetrics(rm))

	env.do(t, http.MethodGet, "/api/settings/risk", nil)
	env.do(t, http.MethodGet, "/api/settings/trading", nil)

	if len(rm.routes) != 2 || rm.routes[0] != "/api/settings/{section}" || rm.routes[1] != rm.routes[0] {
		t.Fatalf("unexpected routes: %v", rm.routes)
	}
}
