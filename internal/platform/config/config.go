// Package config loads service settings from defaults, YAML profiles and
// the environment using koanf.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Built-in values that callers and tests compare against.
const (
	DefaultServerPort          = 5000
	DefaultCORSMaxAge          = 12 * time.Hour
	DefaultGeneratorModel      = "gemini-1.5-flash-latest"
	DefaultGeneratorBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultGeneratorAPIVersion = "v1beta"
)

// Values for generator.provider.
const (
	ProviderREST = "rest" // Gemini REST API via the instrumented client
	ProviderSDK  = "sdk"  // google.golang.org/genai
)

// configDir holds base.yaml and one file per profile.
const configDir = "configs"

// Config is the full service configuration. Field paths in validation
// errors follow the koanf keys, e.g. generator.api_key.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	CORS      CORSConfig      `koanf:"cors"      validate:"required"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Generator GeneratorConfig `koanf:"generator" validate:"required"`
}

// AppConfig identifies the running build.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig configures the inbound listener.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`

	// Zero leaves API handlers without a context deadline.
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"min=0"`
}

// LogConfig selects level and output format. Pretty is for terminals.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig adds a rotated file next to stdout. Sizes are megabytes and
// ages are days.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig points the OTLP gRPC exporters at a collector.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `koanf:"insecure"`
}

// CORSConfig is the cross-origin policy. An origin of "*" admits everyone.
type CORSConfig struct {
	AllowOrigins []string      `koanf:"allow_origins" validate:"required,min=1"`
	AllowMethods []string      `koanf:"allow_methods" validate:"required,min=1"`
	AllowHeaders []string      `koanf:"allow_headers"`
	MaxAge       time.Duration `koanf:"max_age"       validate:"min=0"`
}

// AllowsAllOrigins reports whether "*" is listed.
func (c *CORSConfig) AllowsAllOrigins() bool {
	return slices.Contains(c.AllowOrigins, "*")
}

// ClientConfig tunes the outbound HTTP client used for the generator.
type ClientConfig struct {
	// Per attempt; zero means no deadline.
	Timeout        time.Duration        `koanf:"timeout"         validate:"min=0"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig drives exponential backoff between attempts.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig thresholds only apply when Enabled.
type CircuitBreakerConfig struct {
	Enabled       bool          `koanf:"enabled"`
	MaxFailures   int           `koanf:"max_failures"    validate:"required_if=Enabled true,omitempty,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required_if=Enabled true,omitempty,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required_if=Enabled true,omitempty,min=1"`
}

type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// GeneratorConfig chooses the Gemini adapter and model.
type GeneratorConfig struct {
	Provider   string `koanf:"provider"    validate:"required,oneof=rest sdk"`
	Name       string `koanf:"name"        validate:"required"`
	BaseURL    string `koanf:"base_url"    validate:"required,url"`
	APIVersion string `koanf:"api_version" validate:"required"`
	Model      string `koanf:"model"       validate:"required"`

	// Never logged.
	APIKey string `koanf:"api_key" validate:"required_unless=Environment test" json:"-"`

	// Copied from app.environment; the key is optional under "test".
	Environment string `koanf:"-"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quote-translator",
		"app.version":     "dev",
		"app.environment": "local",

		"server.host":             "0.0.0.0",
		"server.port":             DefaultServerPort,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "60s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": 1 << 20,
		"server.request_timeout":  "0s",

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/app.log",
		"log.file.max_size":    100,
		"log.file.max_backups": 3,
		"log.file.max_age":     28,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.service_name":  "quote-translator",
		"telemetry.sampling_rate": 1.0,
		"telemetry.insecure":      true,

		"cors.allow_origins": []string{"*"},
		"cors.allow_methods": []string{"GET", "POST", "OPTIONS"},
		"cors.allow_headers": []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Correlation-ID"},
		"cors.max_age":       DefaultCORSMaxAge.String(),

		// One attempt, no deadline, no breaker: the generator call behaves
		// like a plain request until configured otherwise.
		"client.timeout":                           "0s",
		"client.retry.max_attempts":                1,
		"client.retry.initial_interval":            "100ms",
		"client.retry.max_interval":                "5s",
		"client.retry.multiplier":                  2.0,
		"client.retry.jitter_factor":               0.25,
		"client.circuit_breaker.enabled":           false,
		"client.circuit_breaker.max_failures":      5,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   3,
		"client.transport.max_idle_conns":          100,
		"client.transport.max_idle_conns_per_host": 10,
		"client.transport.idle_conn_timeout":       "90s",

		"generator.provider":    ProviderREST,
		"generator.name":        "gemini",
		"generator.base_url":    DefaultGeneratorBaseURL,
		"generator.api_version": DefaultGeneratorAPIVersion,
		"generator.model":       DefaultGeneratorModel,
	}
}

// Load merges, lowest precedence first: built-in defaults, configs/base.yaml,
// configs/<profile>.yaml, GEMINI_API_KEY, then APP_* variables
// (APP_CLIENT__RETRY__MAX_ATTEMPTS sets client.retry.max_attempts).
// Missing files are skipped. The result is not validated.
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	files := []string{"base"}
	if profile != "" {
		files = append(files, profile)
	}

	for _, name := range files {
		if err := loadYAML(k, filepath.Join(configDir, name+".yaml")); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("GEMINI_", ".", geminiKey), nil); err != nil {
		return nil, fmt.Errorf("loading GEMINI_ environment: %w", err)
	}

	if err := k.Load(env.Provider("APP_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading APP_ environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Generator.Environment = cfg.App.Environment

	return &cfg, nil
}

// geminiKey admits only GEMINI_API_KEY from the GEMINI_ namespace.
func geminiKey(name string) string {
	if name == "GEMINI_API_KEY" {
		return "generator.api_key"
	}

	return ""
}

// envKey maps APP_SERVER__READ_TIMEOUT to server.read_timeout.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, "APP_"))

	return strings.ReplaceAll(key, "__", ".")
}

func loadYAML(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}
