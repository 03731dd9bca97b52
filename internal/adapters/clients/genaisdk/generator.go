// Package genaisdk adapts the official Gemini Go SDK to ports.TextGenerator.
package genaisdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/jsamuelsen/quote-translator/internal/domain"
	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
)

// ErrEmptyResponse is returned when the SDK yields no candidate text.
var ErrEmptyResponse = errors.New("response contained no candidate text")

// Config configures the SDK-backed generator.
type Config struct {
	Name       string
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string

	// Timeout bounds each call. Zero means no limit.
	Timeout time.Duration

	Logger *slog.Logger
}

// Generator implements ports.TextGenerator and ports.HealthChecker with
// google.golang.org/genai.
type Generator struct {
	client *genai.Client
	name   string
	model  string
	logger *slog.Logger
}

// New creates the SDK client. It does not contact the API.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required")
	}

	if cfg.Model == "" {
		return nil, errors.New("model is required")
	}

	baseURL := cfg.BaseURL
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: cfg.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "gemini"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		client: client,
		name:   name,
		model:  cfg.Model,
		logger: logger.With(slog.String("component", "genaisdk.Generator")),
	}, nil
}

// Generate sends prompt as one user turn and returns the response text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	g.logger.Log(ctx, logging.LevelTrace, "sending prompt",
		slog.String("model", g.model),
		slog.Int("prompt_bytes", len(prompt)))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", domain.WrapUnavailable(g.name, fmt.Errorf("generate content: %w", err))
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", domain.WrapUnavailable(g.name,
			fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
	}

	text := resp.Text()
	if text == "" {
		return "", domain.WrapUnavailable(g.name, ErrEmptyResponse)
	}

	g.logger.Log(ctx, logging.LevelTrace, "received response",
		slog.Int("candidates", len(resp.Candidates)),
		slog.Int("text_bytes", len(text)))

	return text, nil
}

// Name implements ports.HealthChecker.
func (g *Generator) Name() string {
	return g.name
}

// Check fetches the model metadata. Implements ports.HealthChecker.
func (g *Generator) Check(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return domain.WrapUnavailable(g.name, fmt.Errorf("get model: %w", err))
	}

	return nil
}
