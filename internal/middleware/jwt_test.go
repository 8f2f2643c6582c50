package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smoothmove/internal/utils"
)

const testSecret = "test-secret"

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := CurrentUserID(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, echo.Map{"id": id, "email": c.Get(EmailKey)})
	}, JWTAuth(testSecret))

	valid, err := utils.NewAccessToken(testSecret, 7, "ada@example.com", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken failed: %v", err)
	}
	forged, _ := utils.NewAccessToken("other-secret", 7, "ada@example.com", time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + valid.Token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid.Token, http.StatusUnauthorized},
		{"forged token", "Bearer " + forged.Token, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCurrentUserIDWithoutAuth(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, ok := CurrentUserID(c); ok {
		t.Error("expected no user on an unauthenticated context")
	}
	if got := rateKeyUser(c); got != "anon" {
		t.Errorf("rateKeyUser = %q, want anon", got)
	}
}
