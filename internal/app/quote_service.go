// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/quote-translator/internal/domain"
	"github.com/jsamuelsen/quote-translator/internal/ports"
)

const operationTransformQuote = "transform_quote"

// QuoteService orchestrates the quote transformation use case.
// It depends on the TextGenerator port, not a concrete backend.
type QuoteService struct {
	generator ports.TextGenerator
	executor  *Executor
	logger    *slog.Logger
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Generator ports.TextGenerator
	Logger    *slog.Logger

	// Observe receives one outcome per call. Defaults to ObserveOutcome.
	Observe func(Outcome)
}

// NewQuoteService creates a new quote service.
// Panics if Generator is nil. Defaults logger to slog.Default() if nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Generator == nil {
		panic("QuoteService: Generator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "app.QuoteService"))

	observe := cfg.Observe
	if observe == nil {
		observe = ObserveOutcome
	}

	return &QuoteService{
		generator: cfg.Generator,
		executor:  NewExecutor(logger, observe),
		logger:    logger,
	}
}

// TransformQuote rewrites quote in the given style.
//
// Empty quote or style fails with domain.ErrQuoteAndStyleRequired before the
// generator is called. Every generator failure is returned as a
// domain.ErrUnavailable with the cause kept in the chain for logging.
// Generated text is returned as is.
func (s *QuoteService) TransformQuote(ctx context.Context, quote, style string) (string, error) {
	return Execute(ctx, s.executor, Operation[domain.Transformation, string]{
		Name: operationTransformQuote,
		Validate: func(_ context.Context, t domain.Transformation) error {
			return t.Validate()
		},
		Perform: s.generate,
	}, domain.Transformation{Quote: quote, Style: style})
}

func (s *QuoteService) generate(ctx context.Context, t domain.Transformation) (string, error) {
	s.logger.DebugContext(ctx, "transforming quote", slog.String("style", t.Style))

	text, err := s.generator.Generate(ctx, t.Prompt())
	if err != nil {
		if !domain.IsUnavailable(err) {
			err = domain.WrapUnavailable("generator", err)
		}

		return "", err
	}

	return text, nil
}
