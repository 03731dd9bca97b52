package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jsamuelsen/quote-translator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-translator/internal/domain"
	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
)

// APIKeyHeader carries the static Gemini credential.
const APIKeyHeader = "x-goog-api-key"

// GeminiConfig contains configuration for the Gemini REST adapter.
type GeminiConfig struct {
	// Client must have its BaseURL set to the API host.
	Client *clients.Client

	// Name identifies the downstream in errors and health checks.
	Name string

	// APIVersion is the path segment before models/, e.g. v1beta.
	APIVersion string

	// Model is the model id, with or without the models/ prefix.
	Model string

	Logger *slog.Logger
}

// GeminiClient implements ports.TextGenerator and ports.HealthChecker
// against the generateContent REST endpoint.
type GeminiClient struct {
	client    *clients.Client
	name      string
	modelPath string
	logger    *slog.Logger
}

// NewGeminiClient creates the REST adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.Client == nil {
		panic("GeminiClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "gemini"
	}

	model := strings.TrimPrefix(cfg.Model, "models/")

	return &GeminiClient{
		client:    cfg.Client,
		name:      name,
		modelPath: fmt.Sprintf("/%s/models/%s", strings.Trim(cfg.APIVersion, "/"), model),
		logger:    logger,
	}
}

// APIKeyAuth returns a clients.Config AuthFunc that sets the API key header.
func APIKeyAuth(key string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set(APIKeyHeader, key)
	}
}

// Wire types for generateContent. Unexported: they never leave the ACL.
type (
	generateRequest struct {
		Contents []content `json:"contents"`
	}

	content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}

	part struct {
		Text    string `json:"text,omitempty"`
		Thought bool   `json:"thought,omitempty"`
	}

	generateResponse struct {
		Candidates     []candidate     `json:"candidates"`
		PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
	}

	candidate struct {
		Content      *content `json:"content,omitempty"`
		FinishReason string   `json:"finishReason,omitempty"`
	}

	promptFeedback struct {
		BlockReason string `json:"blockReason,omitempty"`
	}
)

// Generate sends prompt as a single user turn and returns the text of the
// first candidate. Implements ports.TextGenerator.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	path := c.modelPath + ":generateContent"

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", domain.WrapUnavailable(c.name, fmt.Errorf("encoding request: %w", err))
	}

	c.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", path),
		slog.Int("prompt_bytes", len(prompt)))

	resp, err := c.client.Post(ctx, path, bytes.NewReader(payload))
	body, err := c.successBody(resp, err, "generate content")
	if err != nil {
		return "", err
	}

	var decoded generateResponse
	if err := decodeJSON(body, &decoded); err != nil {
		return "", domain.WrapUnavailable(c.name, err)
	}

	text, err := translateResponse(&decoded)
	if err != nil {
		return "", domain.WrapUnavailable(c.name, err)
	}

	c.logger.Log(ctx, logging.LevelTrace, "translated generation response",
		slog.Int("candidates", len(decoded.Candidates)),
		slog.Int("text_bytes", len(text)))

	return text, nil
}

// translateResponse extracts the generated text, skipping thought parts.
func translateResponse(resp *generateResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoCandidates
	}

	first := resp.Candidates[0]

	var sb strings.Builder
	for _, p := range first.Content.Parts {
		if p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}

	if sb.Len() == 0 {
		if first.FinishReason != "" {
			return "", fmt.Errorf("%w (finish reason %s)", ErrNoCandidates, first.FinishReason)
		}
		return "", ErrNoCandidates
	}

	return sb.String(), nil
}

// Name labels errors and the readiness check.
func (c *GeminiClient) Name() string { return c.name }

// Check fetches the model's metadata, which fails on a bad key or model id
// without spending generation quota.
func (c *GeminiClient) Check(ctx context.Context) error {
	resp, err := c.client.Get(ctx, c.modelPath)
	body, err := c.successBody(resp, err, "get model")
	if err != nil {
		return err
	}

	_, _ = io.Copy(io.Discard, body)

	return body.Close()
}

// successBody hands back the body of a 2xx answer. Every other outcome is
// closed and mapped to a domain error.
func (c *GeminiClient) successBody(resp *http.Response, err error, operation string) (io.ReadCloser, error) {
	if err != nil || resp.StatusCode/100 != 2 {
		if resp != nil {
			defer func() { _ = resp.Body.Close() }()
		}

		return nil, MapHTTPError(resp, err, c.name, operation)
	}

	return resp.Body, nil
}

func decodeJSON(body io.ReadCloser, dst any) error {
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
