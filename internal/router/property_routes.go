package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smoothmove/internal/handler"
	"github.com/iliyamo/smoothmove/internal/middleware"
)

// RegisterProperties wires the listing endpoints.  Browsing is public so
// guests can search before signing up; creating, deleting and attaching
// images require a token and are restricted to the listing's owner by the
// handlers.
func RegisterProperties(e *echo.Echo, h *handler.PropertyHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/properties")

	public := optional(limit)
	g.GET("", h.ListProperties, public...)
	g.GET("/:id", h.GetProperty, public...)

	// JWTAuth runs before the limiter so per-user buckets see the user id.
	owner := append([]echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret)}, optional(limit)...)
	g.POST("", h.CreateProperty, owner...)
	g.DELETE("/:id", h.DeleteProperty, owner...)
	g.POST("/:id/images", h.AddImage, owner...)
}
