package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventica/internal/handler"
	"github.com/iliyamo/eventica/internal/middleware"
)

// RegisterRoutes registers the unauthenticated health checks.  /healthz is
// kept for load balancers; /api/health is what the web client polls.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", handler.Health)
}

// RegisterAuth registers the signup and session routes under /api/auth.
// otpLimit guards the code endpoints against mail flooding and may be nil.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, otpLimit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")

	// Both code endpoints send or check a one-time code; they share a
	// stricter bucket than the rest of the API.
	var otp []echo.MiddlewareFunc
	if otpLimit != nil {
		otp = append(otp, otpLimit)
	}
	g.POST("/send-otp", a.SendOTP, otp...)
	g.POST("/verify-otp", a.VerifyOTP, otp...)

	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token in the body, a bearer token, or both.
	// The bearer is optional so an expired access token never blocks it.
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))
}
