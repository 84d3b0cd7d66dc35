package middleware

// identity.go defines helpers that read the caller identity stored by the
// JWT middlewares.  Anonymous callers are reported as "guest" in keys.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's id, if any.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// Username returns the authenticated user's name ("" when anonymous).
func Username(c echo.Context) string {
	s, _ := c.Get(CtxUsername).(string)
	return s
}

// userKey is the identity used in rate-limit keys.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
