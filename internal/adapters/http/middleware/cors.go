package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-translator/internal/platform/config"
	"github.com/jsamuelsen/quote-translator/internal/platform/telemetry"
)

// HeaderAllowOrigin is the CORS response header naming permitted origins.
const HeaderAllowOrigin = "Access-Control-Allow-Origin"

// CORS returns middleware applying the configured cross-origin policy.
// Preflight OPTIONS requests are answered with 204 and do not reach handlers.
//
// With a wildcard origin every response carries Access-Control-Allow-Origin: *,
// including requests that send no Origin header.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  cfg.AllowMethods,
		AllowHeaders:  cfg.AllowHeaders,
		ExposeHeaders: []string{HeaderRequestID, HeaderCorrelationID, telemetry.TraceIDHeader},
		MaxAge:        cfg.MaxAge,
	}

	if cfg.AllowsAllOrigins() {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowOrigins
	}

	handler := cors.New(cc)
	if !cc.AllowAllOrigins {
		return handler
	}

	return func(c *gin.Context) {
		c.Header(HeaderAllowOrigin, "*")
		handler(c)
	}
}
