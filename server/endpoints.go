package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freemocap/skellysubs/observability"
	"github.com/freemocap/skellysubs/version"
)

// NamedChecker pairs a component name with its health checker so the health
// endpoint can report per-component status.
type NamedChecker struct {
	Name    string
	Checker observability.HealthChecker
}

// HealthEndpoint reports service health including component statuses. The
// overall status degrades to the worst component status; a down component
// yields a 503.
func HealthEndpoint(serviceName string, checkers ...NamedChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(serviceName, version.GetShortVersion())
		for _, nc := range checkers {
			if nc.Checker == nil {
				continue
			}
			h := nc.Checker.CheckHealth(c.Request.Context())
			if h.Name == "" {
				h.Name = nc.Name
			}
			sh.AddComponent(h)
		}

		httpStatus := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, sh)
	}
}

// VersionEndpoint reports build version information.
func VersionEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.GetVersionInfo())
	}
}
