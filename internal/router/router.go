package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smoothmove/internal/handler"
	"github.com/iliyamo/smoothmove/internal/middleware"
)

// RegisterRoutes registers the probes and the metrics endpoint.  None of
// them require authentication or count against the rate limit.
func RegisterRoutes(e *echo.Echo, db *sql.DB, m *middleware.Metrics) {
	// Liveness: the process is up.
	e.GET("/healthz", handler.Health)
	// Readiness: the database answers a ping.
	e.GET("/readyz", handler.Ready(db))
	if m != nil {
		e.GET("/metrics", m.Handler())
	}
}

// RegisterAuth registers registration, login and the current user endpoint.
// limit is applied to every route in the group; pass nil for none.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, optional(limit)...)
	g.POST("/login", a.Login, optional(limit)...)

	// Protected endpoints require a valid access token.
	e.GET("/v1/me", a.Me, append([]echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}, optional(limit)...)...)
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
