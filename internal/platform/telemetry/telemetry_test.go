package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew_Disabled(t *testing.T) {
	provider, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, provider.Enabled())
	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NotNil(t, otel.GetTextMapPropagator())
}

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics()
	require.NoError(t, err)
	assert.NotNil(t, metrics)
}

func TestMiddleware_TraceHeaderAndSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	router := gin.New()
	router.Use(Middleware("quote-translator")...)
	router.POST("/transform_quote", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"transformed_quote": "Arr"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transform_quote", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(TraceIDHeader), 32)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "/transform_quote", spans[0].Name())
	assert.Equal(t, w.Header().Get(TraceIDHeader), spans[0].SpanContext().TraceID().String())
}

func TestMiddleware_NoTraceHeaderWithoutProvider(t *testing.T) {
	router := gin.New()
	router.Use(metricsMiddleware())
	router.GET("/-/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/live", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(TraceIDHeader))
}

func TestMiddleware_TraceIDOnContextLogger(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), base))
		c.Next()
	})
	router.Use(Middleware("quote-translator")...)
	router.GET("/probe", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", http.NoBody))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, w.Header().Get(TraceIDHeader), entry[logging.KeyTraceID])
}
