package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventica/internal/utils"
)

// Context keys set by the JWT middlewares.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
)

const errAuthRequired = "authentication required, please log in"

// bearer returns the raw token from an "Authorization: Bearer <token>"
// header, or "" when the header is missing or malformed.
func bearer(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and username into the request context.
// Handlers read them via UserID(c) and Username(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearer(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": errAuthRequired})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxUsername, claims.Username)
			return next(c)
		}
	}
}

// OptionalJWT behaves like JWTAuth when a valid token is present and lets
// the request through anonymously otherwise.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := bearer(c); raw != "" {
				if claims, err := utils.ParseAccessToken(secret, raw); err == nil {
					c.Set(CtxUserID, claims.UserID)
					c.Set(CtxUsername, claims.Username)
				}
			}
			return next(c)
		}
	}
}

// AccountChecker is satisfied by *account.Service.
type AccountChecker interface {
	Active(ctx context.Context, id uint64) (bool, error)
}

// RequireAccount runs after JWTAuth or OptionalJWT.  A signed token whose
// subject was deleted or disabled is rejected with 401; anonymous requests
// pass untouched.
func RequireAccount(accounts AccountChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := UserID(c)
			if !ok {
				return next(c)
			}
			active, err := accounts.Active(c.Request().Context(), uid)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}
			if !active {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": errAuthRequired})
			}
			return next(c)
		}
	}
}
