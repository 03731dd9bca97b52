package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "quote-translator",
			Version:     "1.0.0",
			Environment: "local",
		},
		Server: ServerConfig{
			Port:            5000,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  1048576,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			MaxAge:       12 * time.Hour,
		},
		Client: ClientConfig{
			Retry: RetryConfig{
				MaxAttempts:     1,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      2.0,
				JitterFactor:    0.25,
			},
			Transport: TransportConfig{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Generator: GeneratorConfig{
			Provider:   ProviderREST,
			Name:       "gemini",
			BaseURL:    DefaultGeneratorBaseURL,
			APIVersion: DefaultGeneratorAPIVersion,
			Model:      DefaultGeneratorModel,
			APIKey:     "test-key",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{name: "baseline"},
		{name: "test environment without key", mutate: func(c *Config) {
			c.App.Environment = "test"
			c.Generator.APIKey = ""
		}},
		{name: "trace level", mutate: func(c *Config) { c.Log.Level = "trace" }},
		{name: "pretty format", mutate: func(c *Config) { c.Log.Format = "pretty" }},
		{name: "highest port", mutate: func(c *Config) { c.Server.Port = 65535 }},
		{name: "ten attempts", mutate: func(c *Config) { c.Client.Retry.MaxAttempts = 10 }},
		{name: "disabled breaker ignores thresholds", mutate: func(c *Config) {
			c.Client.CircuitBreaker = CircuitBreakerConfig{}
		}},
		{name: "enabled breaker with thresholds", mutate: func(c *Config) {
			c.Client.CircuitBreaker = CircuitBreakerConfig{Enabled: true, MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenLimit: 3}
		}},
		{name: "telemetry with collector", mutate: func(c *Config) {
			c.Telemetry = TelemetryConfig{Enabled: true, Endpoint: "localhost:4317", ServiceName: "quote-translator"}
		}},

		{
			name:    "missing app name",
			mutate:  func(c *Config) { c.App.Name = "" },
			wantErr: []string{"app.name is required"},
		},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.App.Environment = "staging" },
			wantErr: []string{"app.environment must be one of: local dev qa prod test"},
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: []string{"server.port is required"},
		},
		{
			name:    "port above range",
			mutate:  func(c *Config) { c.Server.Port = 65536 },
			wantErr: []string{"server.port must be at most 65535"},
		},
		{
			name:    "negative request timeout",
			mutate:  func(c *Config) { c.Server.RequestTimeout = -time.Second },
			wantErr: []string{"server.request_timeout must be at least 0"},
		},
		{
			name:    "xml log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: []string{"log.format must be one of"},
		},
		{
			name:    "log file without path",
			mutate:  func(c *Config) { c.Log.File = LogFileConfig{Enabled: true} },
			wantErr: []string{"log.file.path is required when Enabled true"},
		},
		{
			name: "telemetry without endpoint",
			mutate: func(c *Config) {
				c.Telemetry = TelemetryConfig{Enabled: true, ServiceName: "quote-translator"}
			},
			wantErr: []string{"telemetry.endpoint is required when"},
		},
		{
			name:    "sampling above one",
			mutate:  func(c *Config) { c.Telemetry.SamplingRate = 1.5 },
			wantErr: []string{"telemetry.sampling_rate must be at most 1"},
		},
		{
			name:    "no origins",
			mutate:  func(c *Config) { c.CORS.AllowOrigins = nil },
			wantErr: []string{"cors.allow_origins is required"},
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Client.Retry.MaxAttempts = 0 },
			wantErr: []string{"client.retry.max_attempts is required"},
		},
		{
			name:    "eleven attempts",
			mutate:  func(c *Config) { c.Client.Retry.MaxAttempts = 11 },
			wantErr: []string{"client.retry.max_attempts must be at most 10"},
		},
		{
			name:   "enabled breaker without thresholds",
			mutate: func(c *Config) { c.Client.CircuitBreaker = CircuitBreakerConfig{Enabled: true} },
			wantErr: []string{
				"client.circuit_breaker.max_failures is required when",
				"client.circuit_breaker.half_open_limit is required when",
			},
		},
		{
			name:    "missing key outside test",
			mutate:  func(c *Config) { c.Generator.APIKey = "" },
			wantErr: []string{"generator.api_key is required unless Environment test"},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Generator.Provider = "openai" },
			wantErr: []string{"generator.provider must be one of: rest sdk"},
		},
		{
			name:    "base url not a url",
			mutate:  func(c *Config) { c.Generator.BaseURL = "not a url" },
			wantErr: []string{"generator.base_url must be a valid URL"},
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Generator.Model = "" },
			wantErr: []string{"generator.model is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestConfig_Validate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: "invalid"}, Server: ServerConfig{Port: -1}}

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "invalid configuration:\n"))
	for _, key := range []string{"app.name", "app.version", "app.environment", "server.port"} {
		assert.Contains(t, msg, key)
	}
}

func TestKeyPath(t *testing.T) {
	assert.Equal(t, "client.retry.max_attempts", keyPath("Config.client.retry.max_attempts"))
	assert.Equal(t, "port", keyPath("port"))
}
