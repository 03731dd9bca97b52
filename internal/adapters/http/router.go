package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-translator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-translator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-translator/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-translator/internal/platform/config"
	"github.com/jsamuelsen/quote-translator/internal/platform/telemetry"
)

// TransformQuotePath is the route the browser frontend posts to.
const TransformQuotePath = "/transform_quote"

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// ServiceName names spans and metrics.
	ServiceName string

	// CORS is the cross-origin policy applied to every route.
	CORS config.CORSConfig

	// RequestTimeout bounds quote routes. Zero disables it.
	RequestTimeout time.Duration

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler
}

// NewRouterConfig builds a RouterConfig from loaded configuration.
func NewRouterConfig(cfg *config.Config, health *handlers.HealthHandler, quotes *handlers.QuoteHandler) RouterConfig {
	return RouterConfig{
		ServiceName:    cfg.App.Name,
		CORS:           cfg.CORS,
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthHandler:  health,
		QuoteHandler:   quotes,
	}
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery
//  2. CORS, so error and preflight responses carry the headers
//  3. Request ID
//  4. Correlation ID
//  5. OpenTelemetry tracing and request metrics
//  6. Logging (skips /-/ endpoints)
//
// Route groups:
//   - /-/: operational endpoints
//   - /transform_quote: the quote endpoint at the path the frontend expects
//   - /api/v1/: versioned alias of the same handler
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	chain := []gin.HandlerFunc{
		middleware.Recovery(),
		middleware.CORS(cfg.CORS),
		middleware.RequestID(),
		middleware.CorrelationID(),
	}
	chain = append(chain, telemetry.Middleware(cfg.ServiceName)...)
	chain = append(chain, middleware.Logging())

	engine.Use(chain...)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusText(http.StatusNotFound)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponse(http.StatusText(http.StatusMethodNotAllowed)))
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutes(engine.Group("/-"))
	}

	if cfg.QuoteHandler == nil {
		return
	}

	timeout := middleware.SimpleTimeout(cfg.RequestTimeout)

	engine.POST(TransformQuotePath, timeout, cfg.QuoteHandler.TransformQuote)

	apiV1 := engine.Group("/api/v1", timeout)
	cfg.QuoteHandler.RegisterQuoteRoutes(apiV1)
}
