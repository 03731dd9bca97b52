//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-translator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-translator/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/quote-translator/internal/adapters/http"
	"github.com/jsamuelsen/quote-translator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-translator/internal/app"
	"github.com/jsamuelsen/quote-translator/internal/platform/config"
	"github.com/jsamuelsen/quote-translator/internal/ports"
)

const (
	testAPIKey     = "integration-key"
	testAPIVersion = "v1beta"
	testModel      = "gemini-1.5-flash"
)

// fakeGemini imitates the generateContent and model lookup endpoints.
// By default it echoes the prompt back as the generated text.
type fakeGemini struct {
	mu       sync.Mutex
	status   int
	failures int
	reply    *string
	raw      string
	delay    time.Duration
	prompts  []string
	apiKeys  []string
	headers  []http.Header
	received int
}

func newFakeGemini() *fakeGemini {
	return &fakeGemini{status: http.StatusOK}
}

func (f *fakeGemini) replyWith(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = &text
}

func (f *fakeGemini) failWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// failFirst makes the next n generate calls fail with status.
func (f *fakeGemini) failFirst(n, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
	f.status = status
}

func (f *fakeGemini) respondRaw(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw = body
}

func (f *fakeGemini) slowDown(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *fakeGemini) lastAPIKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.apiKeys) == 0 {
		return ""
	}
	return f.apiKeys[len(f.apiKeys)-1]
}

func (f *fakeGemini) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeGemini) lastHeader() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.headers) == 0 {
		return http.Header{}
	}
	return f.headers[len(f.headers)-1]
}

func (f *fakeGemini) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	modelPath := "/" + testAPIVersion + "/models/" + testModel

	f.mu.Lock()
	f.received++
	f.apiKeys = append(f.apiKeys, r.Header.Get(acl.APIKeyHeader))
	f.headers = append(f.headers, r.Header.Clone())
	status, reply, raw, delay := f.status, f.reply, f.raw, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if r.Header.Get(acl.APIKeyHeader) != testAPIKey {
		writeJSON(w, http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == modelPath:
		writeJSON(w, http.StatusOK, `{"name":"models/`+testModel+`"}`)
		return
	case r.Method == http.MethodPost && r.URL.Path == modelPath+":generateContent":
	default:
		writeJSON(w, http.StatusNotFound, `{"error":{"code":404,"message":"not found","status":"NOT_FOUND"}}`)
		return
	}

	var req struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}

	body, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(body, &req); err != nil || len(req.Contents) == 0 || len(req.Contents[0].Parts) == 0 {
		writeJSON(w, http.StatusBadRequest, `{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`)
		return
	}

	prompt := req.Contents[0].Parts[0].Text

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	if f.failures > 0 {
		f.failures--
		if f.failures == 0 {
			f.status = http.StatusOK
		}
	}
	f.mu.Unlock()

	if status != http.StatusOK {
		writeJSON(w, status, fmt.Sprintf(`{"error":{"code":%d,"message":%q}}`, status, http.StatusText(status)))
		return
	}

	if raw != "" {
		writeJSON(w, http.StatusOK, raw)
		return
	}

	text := prompt
	if reply != nil {
		text = *reply
	}

	resp := map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": "STOP",
		}},
	}
	out, _ := json.Marshal(resp)
	writeJSON(w, http.StatusOK, string(out))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.Copy(w, strings.NewReader(body))
}

// stack is the full service wired against a fake generator API.
type stack struct {
	fake     *fakeGemini
	upstream *httptest.Server
	server   *httptest.Server
}

func (s *stack) Close() {
	s.server.Close()
	s.upstream.Close()
}

// defaultClientConfig mirrors the shipped defaults: one attempt, no breaker.
func defaultClientConfig() config.ClientConfig {
	return config.ClientConfig{
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     time.Minute,
		},
	}
}

// newStack starts the fake API and the service in front of it.
func newStack(apiKey string, clientCfg config.ClientConfig) (*stack, error) {
	fake := newFakeGemini()
	upstream := httptest.NewServer(fake)

	cfg := &config.Config{
		App: config.AppConfig{Name: "quote-translator-integration", Version: "test", Environment: "test"},
		CORS: config.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       time.Hour,
		},
		Client: clientCfg,
		Generator: config.GeneratorConfig{
			Provider:   config.ProviderREST,
			Name:       "gemini",
			BaseURL:    upstream.URL,
			APIVersion: testAPIVersion,
			Model:      testModel,
			APIKey:     apiKey,
		},
	}

	return serveConfig(fake, upstream, cfg)
}

// serveConfig wires the service from cfg the way cmd/service does, minus
// telemetry, and serves it over httptest.
func serveConfig(fake *fakeGemini, upstream *httptest.Server, cfg *config.Config) (*stack, error) {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Generator.BaseURL,
		ServiceName: cfg.Generator.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		AuthFunc:    acl.APIKeyAuth(cfg.Generator.APIKey),
		Logger:      logger,
	})
	if err != nil {
		upstream.Close()
		return nil, err
	}

	gemini := acl.NewGeminiClient(acl.GeminiConfig{
		Client:     httpClient,
		Name:       cfg.Generator.Name,
		APIVersion: cfg.Generator.APIVersion,
		Model:      cfg.Generator.Model,
		Logger:     logger,
	})

	registry := ports.NewHealthRegistry()
	if err := registry.Register(gemini); err != nil {
		upstream.Close()
		return nil, err
	}

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Generator: gemini,
		Logger:    logger,
	})

	health := handlers.NewHealthHandler(registry,
		handlers.NewBuildInfo(cfg.App.Version, "test", "").WithService(cfg.App.Name))

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.NewRouterConfig(cfg, health, handlers.NewQuoteHandler(service)))

	return &stack{
		fake:     fake,
		upstream: upstream,
		server:   httptest.NewServer(engine),
	}, nil
}
