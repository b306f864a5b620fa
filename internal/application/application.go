package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/envconform/internal/api"
	"github.com/eugenenazirov/envconform/internal/config"
	"github.com/eugenenazirov/envconform/internal/metrics"
	"github.com/eugenenazirov/envconform/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	metrics *metrics.Collector
	watcher *storage.Watcher
	watch   bool
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage()

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	var watcher *storage.Watcher
	if cfg.SchemaFile != "" {
		w, err := storage.NewWatcher(cfg.SchemaFile, store, logger, storage.WithReloadHook(collector.ObserveReload))
		if err != nil {
			return nil, fmt.Errorf("failed to create schema watcher: %w", err)
		}
		if err := w.Reload(); err != nil {
			return nil, fmt.Errorf("failed to load initial schema: %w", err)
		}
		watcher = w
	}

	handler := api.NewHandler(store, api.WithConformMetrics(collector))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithCORSOrigins(cfg.CORSAllowedOrigins),
		api.WithMetrics(collector),
	)

	var metricsHandler http.Handler
	if collector != nil {
		metricsHandler = collector.Handler()
	}

	return &App{
		storage: store,
		metrics: collector,
		watcher: watcher,
		watch:   cfg.WatchSchema,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter, metricsHandler)),
	}, nil
}

// BuildRootHandler constructs the root HTTP handler that routes API requests
// and, when metricsHandler is non-nil, serves metrics on /metrics.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the schema watcher when enabled, then the HTTP server in a
// goroutine, and logs the listening address.
func (a *App) Start() error {
	if a.watch && a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			return fmt.Errorf("failed to watch schema file: %w", err)
		}
	}

	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Close stops the schema watcher. It is safe to call more than once.
func (a *App) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
