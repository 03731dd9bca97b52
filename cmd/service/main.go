// Command service runs the quote translator HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jsamuelsen/quote-translator/internal/adapters/http"
	"github.com/jsamuelsen/quote-translator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-translator/internal/app"
	"github.com/jsamuelsen/quote-translator/internal/platform/config"
	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
	"github.com/jsamuelsen/quote-translator/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-translator/internal/ports"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// readinessCheckTimeout bounds the generator model lookup behind /-/ready.
const readinessCheckTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the service and serves until ctx is cancelled or the listener
// fails.
func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	logging.SetDefault(logger)
	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("generator", cfg.Generator.Provider),
		slog.String("model", cfg.Generator.Model),
	)

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", err))
		}
	}()

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating text generator: %w", err)
	}

	registry := ports.NewHealthRegistry(ports.WithCheckTimeout(readinessCheckTimeout))
	if err := registry.Register(gen); err != nil {
		return fmt.Errorf("registering generator health check: %w", err)
	}

	quotes := handlers.NewQuoteHandler(app.NewQuoteService(app.QuoteServiceConfig{
		Generator: gen,
		Logger:    logger,
	}))
	health := handlers.NewHealthHandler(registry,
		handlers.NewBuildInfo(Version, Commit, BuildTime).WithService(cfg.App.Name))

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.NewRouterConfig(cfg, health, quotes))

	return serve(ctx, logger, server, cfg.Server.ShutdownTimeout)
}

// loadConfig reads .env if present, then the profile named by
// APP_ENVIRONMENT (default local), and refuses an invalid result.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	f := cfg.Log.File

	return logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    f.Enabled,
			Path:       f.Path,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		},
	})
}

// serve starts server and blocks until ctx is done, then drains in-flight
// requests for at most grace. Generator calls still running when grace
// expires are cut off.
func serve(ctx context.Context, logger *slog.Logger, server *http.Server, grace time.Duration) error {
	listenErr := server.Start()

	select {
	case err, ok := <-listenErr:
		if !ok {
			return nil
		}

		return err
	case <-ctx.Done():
		logger.Info("shutdown requested", slog.Duration("grace", grace))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}
