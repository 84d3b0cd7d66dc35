package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventica/internal/config"
)

// Health is the liveness endpoint used by load balancers and monitoring.  It
// reports a message, the server time and the build version.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   config.Version,
	})
}
