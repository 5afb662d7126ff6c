// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "datalang.yaml"

// Config is the datalang.yaml document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Compiler CompilerConfig `yaml:"compiler"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP compile service.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CompilerConfig configures compilation defaults.
type CompilerConfig struct {
	StrictReferences bool   `yaml:"strict_references"`
	DefaultTarget    string `yaml:"default_target"`
	Package          string `yaml:"package"`
	MaxSourceBytes   int64  `yaml:"max_source_bytes"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references and
// applying DATALANG_* environment overrides.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := newConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return finish(cfg)
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	DATALANG_SERVER_HOST        - Server host (default: 127.0.0.1)
//	DATALANG_SERVER_PORT        - Server port (default: 8080)
//	DATALANG_STRICT_REFERENCES  - Check plain field references (default: false)
//	DATALANG_DEFAULT_TARGET     - Emitter used when none is named (default: go)
//	DATALANG_PACKAGE            - Package of generated Go code (default: models)
//	DATALANG_MAX_SOURCE_BYTES   - Largest accepted source (default: 1048576)
//	DATALANG_LOG_LEVEL          - Log level: debug, info, warn, error (default: info)
//	DATALANG_LOG_FORMAT         - Log format: json or console (default: console)
//	DATALANG_METRICS_ENABLED    - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	return finish(newConfig())
}

// newConfig holds the defaults a YAML document cannot express by omission.
func newConfig() *Config {
	return &Config{Metrics: MetricsConfig{Enabled: true}}
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise. An explicitly named file that is missing is an error.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if path != DefaultPath {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// envOverrides maps DATALANG_* variables onto config fields. Values that do
// not parse are ignored.
var envOverrides = []struct {
	name  string
	apply func(cfg *Config, v string)
}{
	{"DATALANG_SERVER_HOST", func(c *Config, v string) { c.Server.Host = v }},
	{"DATALANG_SERVER_PORT", func(c *Config, v string) {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}},
	{"DATALANG_SERVER_READ_TIMEOUT", func(c *Config, v string) { setDuration(&c.Server.ReadTimeout, v) }},
	{"DATALANG_SERVER_WRITE_TIMEOUT", func(c *Config, v string) { setDuration(&c.Server.WriteTimeout, v) }},
	{"DATALANG_STRICT_REFERENCES", func(c *Config, v string) { c.Compiler.StrictReferences = parseBool(v) }},
	{"DATALANG_DEFAULT_TARGET", func(c *Config, v string) { c.Compiler.DefaultTarget = v }},
	{"DATALANG_PACKAGE", func(c *Config, v string) { c.Compiler.Package = v }},
	{"DATALANG_MAX_SOURCE_BYTES", func(c *Config, v string) {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Compiler.MaxSourceBytes = n
		}
	}},
	{"DATALANG_LOG_LEVEL", func(c *Config, v string) { c.Logging.Level = v }},
	{"DATALANG_LOG_FORMAT", func(c *Config, v string) { c.Logging.Format = v }},
	{"DATALANG_METRICS_ENABLED", func(c *Config, v string) { c.Metrics.Enabled = parseBool(v) }},
	{"DATALANG_METRICS_PATH", func(c *Config, v string) { c.Metrics.Path = v }},
}

// applyEnvOverrides applies set DATALANG_* variables over the file values.
func applyEnvOverrides(cfg *Config) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			o.apply(cfg, v)
		}
	}
}

func setDuration(d *time.Duration, v string) {
	if parsed, err := time.ParseDuration(v); err == nil {
		*d = parsed
	}
}

// parseBool accepts true, 1, yes and on in any case.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Compiler.DefaultTarget == "" {
		cfg.Compiler.DefaultTarget = "go"
	}
	if cfg.Compiler.Package == "" {
		cfg.Compiler.Package = "models"
	}
	if cfg.Compiler.MaxSourceBytes == 0 {
		cfg.Compiler.MaxSourceBytes = 1 << 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port))
	}
	if !token.IsIdentifier(cfg.Compiler.Package) || token.IsKeyword(cfg.Compiler.Package) {
		errs = append(errs, fmt.Errorf("compiler.package %q is not a valid Go package name", cfg.Compiler.Package))
	}
	if cfg.Compiler.MaxSourceBytes < 0 {
		errs = append(errs, fmt.Errorf("compiler.max_source_bytes must not be negative"))
	}
	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level %q: %w", cfg.Logging.Level, err))
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format))
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path))
	}

	return errors.Join(errs...)
}
