package middleware // package middleware contains reusable echo middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smoothmove/internal/utils"
)

// Context keys set by JWTAuth.
const (
	UserIDKey = "user_id" // uint64
	EmailKey  = "email"   // string
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the user id and email in the request context.  Requests without a
// valid token are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			// ParseAccessToken already rejected non-numeric subjects
			uid, _ := claims.UserID()
			c.Set(UserIDKey, uid)
			c.Set(EmailKey, claims.Email)
			return next(c)
		}
	}
}
