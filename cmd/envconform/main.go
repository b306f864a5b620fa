package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/eugenenazirov/envconform/internal/application"
	"github.com/eugenenazirov/envconform/internal/config"
	"github.com/eugenenazirov/envconform/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("envconform", "Environment conformer - converts raw environment strings into typed values")

	serveCmd := kingpinApp.Command("serve", "Run the HTTP conform service").Default()
	configFile := serveCmd.Flag("config", "Path to YAML configuration file").String()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	schemaFile := serveCmd.Flag("schema", "Path to YAML schema file loaded at startup").String()
	watchSchema := serveCmd.Flag("watch", "Reload the schema file when it changes").Bool()
	logLevel := serveCmd.Flag("log-level", "Log level (debug, info, warn, error)").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter").Default("-1").Int()

	renderCmd := kingpinApp.Command("render", "Conform the environment against a schema file and print the result")
	renderSchema := renderCmd.Flag("schema", "Path to YAML schema file").Required().ExistingFile()
	renderSet := renderCmd.Flag("set", "Override an environment variable (KEY=VALUE), repeatable").StringMap()
	renderFormat := renderCmd.Flag("format", "Output format (env prints empty arrays and objects as empty values, which read back as the field default)").Default(formatJSON).Enum(formatJSON, formatEnv)

	switch kingpin.MustParse(kingpinApp.Parse(os.Args[1:])) {
	case renderCmd.FullCommand():
		opts := renderOptions{
			SchemaPath: *renderSchema,
			Overrides:  *renderSet,
			Format:     *renderFormat,
			Lookup:     os.LookupEnv,
			Indent:     term.IsTerminal(int(os.Stdout.Fd())),
		}
		kingpinApp.FatalIfError(render(os.Stdout, opts), "render")
	case serveCmd.FullCommand():
		overrides := &config.CLIOverrides{
			ConfigFile: *configFile,
		}
		if *port != "" {
			overrides.Port = port
		}
		if *schemaFile != "" {
			overrides.SchemaFile = schemaFile
		}
		if *watchSchema {
			overrides.WatchSchema = watchSchema
		}
		if *logLevel != "" {
			overrides.LogLevel = logLevel
		}
		if *rateLimitRPSFlag >= 0 {
			overrides.RateLimitRPS = rateLimitRPSFlag
		}
		if *rateLimitBurstFlag >= 0 {
			overrides.RateLimitBurst = rateLimitBurstFlag
		}
		serve(overrides)
	}
}

func serve(overrides *config.CLIOverrides) {
	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFields)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := runServer(app, cfg.ShutdownGracePeriod, logger); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// lifecycle is the part of application.App that runServer drives.
type lifecycle interface {
	Start() error
	Server() *http.Server
	Close()
}

// runServer starts app, blocks until a shutdown signal arrives, drains the
// HTTP server and stops the schema watcher.
func runServer(app lifecycle, timeout time.Duration, logger *zap.Logger) error {
	defer app.Close()

	if err := app.Start(); err != nil {
		return err
	}

	shutdown(app.Server(), timeout, logger)
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
