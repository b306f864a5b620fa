package application

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/envconform/internal/config"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	cfg.SchemaFile = writeSchemaFile(t, "PORT:\n  type: number\n  default: 8080\nDEBUG: boolean\n")
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(app.Close)

	def, _, err := app.storage.GetSchema()
	if err != nil {
		t.Fatalf("GetSchema returned error: %v", err)
	}
	if def.Len() != 2 || def.Fields[0].Key != "PORT" || def.Fields[1].Key != "DEBUG" {
		t.Fatalf("expected schema file to be preloaded, got %+v", def.Fields)
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.metrics == nil {
		t.Fatalf("expected metrics collector when metrics are enabled")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
}

func TestNewWithoutSchemaFile(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.MetricsEnabled = false

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(app.Close)

	if app.watcher != nil {
		t.Fatalf("expected no watcher without a schema file")
	}
	if app.metrics != nil {
		t.Fatalf("expected no metrics collector when disabled")
	}

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected /metrics to be absent, got %d", rec.Code)
	}
}

func TestNewReturnsErrorForInvalidSchemaFile(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.SchemaFile = writeSchemaFile(t, "PORT: duration\n")

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid schema file")
	}
}

func TestNewReturnsErrorForMissingSchemaFile(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.SchemaFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for missing schema file")
	}
}

func TestNewServesMetrics(t *testing.T) {
	cfg := baseTestConfig(":0")

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(app.Close)

	handler := app.server.Handler
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "envconform_requests_total") {
		t.Fatalf("expected request metrics in output")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestStartWatchesSchemaFile(t *testing.T) {
	cfg := baseTestConfig("127.0.0.1:0")
	cfg.SchemaFile = writeSchemaFile(t, "A: string\n")
	cfg.WatchSchema = true

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	t.Cleanup(func() {
		app.Close()
		_ = app.server.Close()
	})

	if err := os.WriteFile(cfg.SchemaFile, []byte("A: string\nB: number\n"), 0o600); err != nil {
		t.Fatalf("rewrite schema: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		def, _, _ := app.storage.GetSchema()
		if def.Len() == 2 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected watcher to pick up schema change")
}

func writeSchemaFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		MetricsEnabled:       true,
		CORSAllowedOrigins:   []string{"*"},
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
