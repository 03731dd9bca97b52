// Package handlers contains the gin handlers for the quote endpoint and the
// operational /-/ routes.
package handlers

import (
	"log/slog"
	"net/http"
	"runtime"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quote-translator/internal/platform/logging"
	"github.com/jsamuelsen/quote-translator/internal/ports"
)

// BuildInfo is served on /-/build. Version, Commit and BuildTime come from
// -ldflags at build time.
type BuildInfo struct {
	Service   string `json:"service,omitempty"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo fills in the Go toolchain version.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// WithService returns a copy labelled with the service name.
func (b BuildInfo) WithService(name string) BuildInfo {
	b.Service = name
	return b
}

// HealthHandler serves the probe, build and metrics endpoints.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
	metrics   http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
		metrics:   promhttp.Handler(),
	}
}

type statusResponse struct {
	Status string                        `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Liveness answers 200 while the process can serve HTTP at all.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

// Readiness runs every registered check and answers 503 if any fails.
// The generator registers a model lookup, so a bad key or model name shows
// up here before the first quote does.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx := c.Request.Context()
	result := h.registry.CheckAll(ctx)

	if result.Status != ports.HealthStatusUnhealthy {
		c.JSON(http.StatusOK, statusResponse{Status: string(result.Status), Checks: result.Checks})
		return
	}

	logger := logging.FromContext(ctx)
	for _, name := range failedChecks(result) {
		logger.WarnContext(ctx, "readiness check failed",
			slog.String("check", name),
			slog.String("message", result.Checks[name].Message),
		)
	}

	c.JSON(http.StatusServiceUnavailable, statusResponse{Status: string(result.Status), Checks: result.Checks})
}

// BuildInfoHandler serves the build metadata.
func (h *HealthHandler) BuildInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// RegisterHealthRoutes mounts live, ready, build and metrics on rg,
// which the router places at /-.
func (h *HealthHandler) RegisterHealthRoutes(rg *gin.RouterGroup) {
	rg.GET("/live", h.Liveness)
	rg.GET("/ready", h.Readiness)
	rg.GET("/build", h.BuildInfoHandler)
	rg.GET("/metrics", gin.WrapH(h.metrics))
}

// failedChecks returns the unhealthy check names in stable order.
func failedChecks(result *ports.HealthResult) []string {
	var names []string
	for name, check := range result.Checks {
		if check.Status == ports.HealthStatusUnhealthy {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}
