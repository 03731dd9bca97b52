package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-translator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-translator/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-translator/internal/adapters/clients/genaisdk"
	"github.com/jsamuelsen/quote-translator/internal/platform/config"
	"github.com/jsamuelsen/quote-translator/internal/ports"
)

// generator is what the service needs from a backend: the generation port
// plus a readiness check.
type generator interface {
	ports.TextGenerator
	ports.HealthChecker
}

// newGenerator builds the backend selected by generator.provider.
func newGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (generator, error) {
	gen := cfg.Generator

	switch gen.Provider {
	case config.ProviderREST:
		httpClient, err := clients.New(&clients.Config{
			BaseURL:     gen.BaseURL,
			ServiceName: gen.Name,
			Timeout:     cfg.Client.Timeout,
			Retry:       cfg.Client.Retry,
			Circuit:     cfg.Client.CircuitBreaker,
			Transport:   cfg.Client.Transport,
			AuthFunc:    acl.APIKeyAuth(gen.APIKey),
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating HTTP client: %w", err)
		}

		return acl.NewGeminiClient(acl.GeminiConfig{
			Client:     httpClient,
			Name:       gen.Name,
			APIVersion: gen.APIVersion,
			Model:      gen.Model,
			Logger:     logger,
		}), nil

	case config.ProviderSDK:
		sdk, err := genaisdk.New(ctx, genaisdk.Config{
			Name:       gen.Name,
			APIKey:     gen.APIKey,
			BaseURL:    gen.BaseURL,
			APIVersion: gen.APIVersion,
			Model:      gen.Model,
			Timeout:    cfg.Client.Timeout,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating genai client: %w", err)
		}

		return sdk, nil

	default:
		return nil, fmt.Errorf("unknown generator provider %q", gen.Provider)
	}
}
