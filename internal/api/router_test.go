package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/envconform/internal/metrics"
	"github.com/eugenenazirov/envconform/internal/storage"
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

func TestWithRateLimiterOptionAppliesLimiter(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&staticLimiter{allow: false}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block request, got %d", rec.Code)
	}
}

func TestWithRateLimitDisablesLimiterWhenZero(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&staticLimiter{allow: false}), WithRateLimit(0, 0))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter to be disabled, got %d", rec.Code)
	}
}

func TestWithRateLimitEnforcesLimit(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimit(1, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req.Clone(req.Context()))
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected rate limiter to block second request, got %d", rec2.Code)
	}
}

func newTestRouter(t *testing.T, opts ...RouterOption) http.Handler {
	t.Helper()

	store := storage.NewMemoryStorage()
	handler := NewHandler(store)
	logger := zaptest.NewLogger(t)
	return NewRouter(handler, logger, opts...)
}

func TestWithCORSOriginsEchoesAllowedOrigin(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithCORSOrigins([]string{"https://allowed.example"}))

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://allowed.example", want: "https://allowed.example"},
		{origin: "https://other.example", want: ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/conform", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Fatalf("origin %s: expected allow-origin %q, got %q", tt.origin, tt.want, got)
		}
	}
}

func TestWithMetricsRecordsRoutePattern(t *testing.T) {
	collector := metrics.NewWithRegistry(prometheus.NewRegistry(), prometheus.NewRegistry())
	router := newTestRouter(t, WithLogging(false), WithMetrics(collector))

	for _, path := range []string{"/api/health", "/api/health", "/api/missing"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(collector.RequestsTotal.WithLabelValues(http.MethodGet, "/api/health", "200")); got != 2 {
		t.Fatalf("expected 2 health requests, got %v", got)
	}
	if got := testutil.ToFloat64(collector.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"":                "unmatched",
		"GET /api/schema": "/api/schema",
		"/api/":           "/api/",
	}
	for pattern, want := range tests {
		if got := routeLabel(pattern); got != want {
			t.Fatalf("routeLabel(%q): expected %s, got %s", pattern, want, got)
		}
	}
}

func TestWithMetricsCountsRateLimitedRequests(t *testing.T) {
	collector := metrics.NewWithRegistry(prometheus.NewRegistry(), prometheus.NewRegistry())
	router := newTestRouter(t, WithLogging(false), WithMetrics(collector), WithRateLimiter(&staticLimiter{allow: false}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conform", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	if got := testutil.ToFloat64(collector.RequestsTotal.WithLabelValues(http.MethodPost, "unmatched", "429")); got != 1 {
		t.Fatalf("expected rate limited request in requests_total, got %v", got)
	}
	if got := testutil.ToFloat64(collector.RateLimited); got != 1 {
		t.Fatalf("expected 1 rate limited request, got %v", got)
	}
}

func TestMetricsMiddlewareCountsRecoveredPanics(t *testing.T) {
	collector := metrics.NewWithRegistry(prometheus.NewRegistry(), prometheus.NewRegistry())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/conform", func(http.ResponseWriter, *http.Request) {
		panic("converter exploded")
	})
	handler := metricsMiddleware(collector, recoveryMiddleware(zaptest.NewLogger(t), routeCaptureMiddleware(mux)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conform", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}

	if got := testutil.ToFloat64(collector.RequestsTotal.WithLabelValues(http.MethodPost, "/api/conform", "500")); got != 1 {
		t.Fatalf("expected panicking request in requests_total, got %v", got)
	}
}
