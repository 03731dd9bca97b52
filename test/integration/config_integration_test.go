//go:build integration

package integration

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-translator/internal/platform/config"
)

// TestConfig_EnvironmentDrivesStack loads configuration from the environment
// and verifies the key, model and base URL reach the generator.
func TestConfig_EnvironmentDrivesStack(t *testing.T) {
	fake := newFakeGemini()
	upstream := httptest.NewServer(fake)

	t.Setenv("APP_ENVIRONMENT", "test")
	t.Setenv("APP_APP__ENVIRONMENT", "test")
	t.Setenv("GEMINI_API_KEY", testAPIKey)
	t.Setenv("APP_GENERATOR__BASE_URL", upstream.URL)
	t.Setenv("APP_GENERATOR__MODEL", testModel)

	cfg, err := config.Load("test")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, testAPIKey, cfg.Generator.APIKey)
	assert.Equal(t, upstream.URL, cfg.Generator.BaseURL)
	assert.Equal(t, 1, cfg.Client.Retry.MaxAttempts)
	assert.False(t, cfg.Client.CircuitBreaker.Enabled)

	s, err := serveConfig(fake, upstream, cfg)
	require.NoError(t, err)
	defer s.Close()

	resp, body := postQuote(t, s, "/transform_quote", "Be yourself", "pirate")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Translate the following quote into pirate style: 'Be yourself'", body["transformed_quote"])
	assert.Equal(t, testAPIKey, fake.lastAPIKey())
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

// TestConfig_AppKeyOverridesGeminiKey checks env precedence between the two
// key variables.
func TestConfig_AppKeyOverridesGeminiKey(t *testing.T) {
	t.Setenv("APP_APP__ENVIRONMENT", "test")
	t.Setenv("GEMINI_API_KEY", "from-gemini")
	t.Setenv("APP_GENERATOR__API_KEY", "from-app")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-app", cfg.Generator.APIKey)
}

// TestConfig_MissingKeyOutsideTests fails validation without a key.
func TestConfig_MissingKeyOutsideTests(t *testing.T) {
	t.Setenv("APP_APP__ENVIRONMENT", "prod")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("APP_GENERATOR__API_KEY", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator.api_key")
}
