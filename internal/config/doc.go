// Package config loads the service configuration from multiple sources (YAML
// file, environment variables, CLI flags) with precedence: CLI flags >
// Environment variables > YAML config > Defaults. The environment layer is
// itself conformed with pkg/conform.
package config
