package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envconform/pkg/conform"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Environment variable names read by Load.
const (
	EnvPort                 = "PORT"
	EnvSchemaFile           = "SCHEMA_FILE"
	EnvWatchSchema          = "WATCH_SCHEMA"
	EnvLogLevel             = "LOG_LEVEL"
	EnvLogFields            = "LOG_FIELDS"
	EnvEnableRequestLogging = "ENABLE_REQUEST_LOGGING"
	EnvMetricsEnabled       = "METRICS_ENABLED"
	EnvRateLimitRPS         = "RATE_LIMIT_RPS"
	EnvRateLimitBurst       = "RATE_LIMIT_BURST"
	EnvCORSAllowedOrigins   = "CORS_ALLOWED_ORIGINS"
	EnvShutdownGracePeriod  = "SHUTDOWN_GRACE_PERIOD"
	EnvReadHeaderTimeout    = "READ_HEADER_TIMEOUT"
	EnvWriteTimeout         = "WRITE_TIMEOUT"
	EnvIdleTimeout          = "IDLE_TIMEOUT"
)

// Config aggregates runtime configuration resolved from multiple sources.
type Config struct {
	Port                 string
	SchemaFile           string
	WatchSchema          bool
	LogLevel             string
	LogFields            map[string]string
	EnableRequestLogging bool
	MetricsEnabled       bool
	CORSAllowedOrigins   []string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string            `yaml:"port"`
	SchemaFile           string            `yaml:"schema_file"`
	WatchSchema          *bool             `yaml:"watch_schema"`
	ShutdownGracePeriod  string            `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string            `yaml:"read_header_timeout"`
	WriteTimeout         string            `yaml:"write_timeout"`
	IdleTimeout          string            `yaml:"idle_timeout"`
	EnableRequestLogging *bool             `yaml:"enable_request_logging"`
	MetricsEnabled       *bool             `yaml:"metrics_enabled"`
	CORSAllowedOrigins   []string          `yaml:"cors_allowed_origins"`
	Log                  yamlLog           `yaml:"log"`
	RateLimit            yamlRateLimit     `yaml:"rate_limit"`
}

// yamlLog represents the log section in YAML.
type yamlLog struct {
	Level  string            `yaml:"level"`
	Fields map[string]string `yaml:"fields"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// envValues receives the conformed environment layer.
type envValues struct {
	Port                 string            `env:"PORT"`
	SchemaFile           string            `env:"SCHEMA_FILE"`
	WatchSchema          bool              `env:"WATCH_SCHEMA"`
	LogLevel             string            `env:"LOG_LEVEL"`
	LogFields            map[string]string `env:"LOG_FIELDS"`
	EnableRequestLogging bool              `env:"ENABLE_REQUEST_LOGGING"`
	MetricsEnabled       bool              `env:"METRICS_ENABLED"`
	RateLimitRPS         string            `env:"RATE_LIMIT_RPS"`
	RateLimitBurst       int               `env:"RATE_LIMIT_BURST"`
	CORSAllowedOrigins   []string          `env:"CORS_ALLOWED_ORIGINS"`
	ShutdownGracePeriod  string            `env:"SHUTDOWN_GRACE_PERIOD"`
	ReadHeaderTimeout    string            `env:"READ_HEADER_TIMEOUT"`
	WriteTimeout         string            `env:"WRITE_TIMEOUT"`
	IdleTimeout          string            `env:"IDLE_TIMEOUT"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	SchemaFile     *string
	WatchSchema    *bool
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources, reading the process
// environment for the environment layer.
func Load(overrides *CLIOverrides) (Config, error) {
	return LoadWithEnv(overrides, conform.LookupFunc(os.LookupEnv))
}

// LoadWithEnv is Load with an explicit environment.
func LoadWithEnv(overrides *CLIOverrides, env conform.Environment) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	if err := applyEnvConfig(&cfg, env); err != nil {
		return Config{}, err
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             defaultLogLevel,
		LogFields:            map[string]string{},
		EnableRequestLogging: true,
		MetricsEnabled:       true,
		CORSAllowedOrigins:   []string{"*"},
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.SchemaFile != "" {
		cfg.SchemaFile = yamlCfg.SchemaFile
	}
	if yamlCfg.WatchSchema != nil {
		cfg.WatchSchema = *yamlCfg.WatchSchema
	}
	if yamlCfg.Log.Level != "" {
		cfg.LogLevel = yamlCfg.Log.Level
	}
	if len(yamlCfg.Log.Fields) > 0 {
		cfg.LogFields = yamlCfg.Log.Fields
	}
	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.MetricsEnabled != nil {
		cfg.MetricsEnabled = *yamlCfg.MetricsEnabled
	}
	if len(yamlCfg.CORSAllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = yamlCfg.CORSAllowedOrigins
	}

	applyDuration(&cfg.ShutdownGracePeriod, yamlCfg.ShutdownGracePeriod)
	applyDuration(&cfg.ReadHeaderTimeout, yamlCfg.ReadHeaderTimeout)
	applyDuration(&cfg.WriteTimeout, yamlCfg.WriteTimeout)
	applyDuration(&cfg.IdleTimeout, yamlCfg.IdleTimeout)

	if yamlCfg.RateLimit.RPS != nil && *yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil && *yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
}

// envSchema describes the environment layer. Every converter defaults to the
// value resolved so far, so unset variables leave cfg untouched.
func envSchema(cfg *Config) *conform.Schema {
	return conform.NewSchema(
		conform.Field{Key: EnvPort, Converter: conform.String.WithDefault(cfg.Port)},
		conform.Field{Key: EnvSchemaFile, Converter: conform.String.WithDefault(cfg.SchemaFile)},
		conform.Field{Key: EnvWatchSchema, Converter: conform.Boolean.WithDefault(cfg.WatchSchema)},
		conform.Field{Key: EnvLogLevel, Converter: conform.String.WithDefault(cfg.LogLevel)},
		conform.Field{Key: EnvLogFields, Converter: conform.Object.WithDefault(cfg.LogFields)},
		conform.Field{Key: EnvEnableRequestLogging, Converter: conform.Boolean.WithDefault(cfg.EnableRequestLogging)},
		conform.Field{Key: EnvMetricsEnabled, Converter: conform.Boolean.WithDefault(cfg.MetricsEnabled)},
		conform.Field{Key: EnvRateLimitRPS, Converter: conform.String},
		conform.Field{Key: EnvRateLimitBurst, Converter: conform.Number.WithDefault(cfg.RateLimitBurst)},
		conform.Field{Key: EnvCORSAllowedOrigins, Converter: conform.Array.WithDefault(cfg.CORSAllowedOrigins)},
		conform.Field{Key: EnvShutdownGracePeriod, Converter: conform.String},
		conform.Field{Key: EnvReadHeaderTimeout, Converter: conform.String},
		conform.Field{Key: EnvWriteTimeout, Converter: conform.String},
		conform.Field{Key: EnvIdleTimeout, Converter: conform.String},
	)
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config, env conform.Environment) error {
	res, err := conform.Conform(env, envSchema(cfg))
	if err != nil {
		return fmt.Errorf("conform environment: %w", err)
	}

	var values envValues
	if err := res.Decode(&values); err != nil {
		return fmt.Errorf("decode environment: %w", err)
	}

	cfg.Port = values.Port
	cfg.SchemaFile = values.SchemaFile
	cfg.WatchSchema = values.WatchSchema
	cfg.LogLevel = values.LogLevel
	cfg.LogFields = values.LogFields
	cfg.EnableRequestLogging = values.EnableRequestLogging
	cfg.MetricsEnabled = values.MetricsEnabled
	cfg.CORSAllowedOrigins = values.CORSAllowedOrigins

	if values.RateLimitRPS != "" {
		if value, err := strconv.ParseFloat(values.RateLimitRPS, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}
	if values.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = values.RateLimitBurst
	}

	applyDuration(&cfg.ShutdownGracePeriod, values.ShutdownGracePeriod)
	applyDuration(&cfg.ReadHeaderTimeout, values.ReadHeaderTimeout)
	applyDuration(&cfg.WriteTimeout, values.WriteTimeout)
	applyDuration(&cfg.IdleTimeout, values.IdleTimeout)

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.SchemaFile != nil && *overrides.SchemaFile != "" {
		cfg.SchemaFile = *overrides.SchemaFile
	}
	if overrides.WatchSchema != nil {
		cfg.WatchSchema = *overrides.WatchSchema
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.WatchSchema && cfg.SchemaFile == "" {
		return fmt.Errorf("WATCH_SCHEMA requires SCHEMA_FILE")
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return nil
}

// applyDuration replaces *dst when raw holds a valid duration.
func applyDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}
