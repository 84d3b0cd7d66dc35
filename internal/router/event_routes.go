package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventica/internal/handler"
	"github.com/iliyamo/eventica/internal/middleware"
)

// RegisterEvents registers listing, event, RSVP and review endpoints under
// /api/events.  cache wraps the two listing routes and may be nil; accounts
// rejects tokens of deleted accounts and may be nil in tests.
func RegisterEvents(e *echo.Echo, ev *handler.EventHandler, rv *handler.ReviewHandler, jwtSecret string,
	accounts middleware.AccountChecker, cache echo.MiddlewareFunc) {
	g := e.Group("/api/events")
	auth := identity(middleware.JWTAuth(jwtSecret), accounts)
	optional := identity(middleware.OptionalJWT(jwtSecret), accounts)

	var cached []echo.MiddlewareFunc
	if cache != nil {
		cached = append(cached, cache)
	}

	// ---- Listings ----
	g.GET("/allevents", ev.GetAllEvents, cached...)
	g.GET("/catalog", ev.Catalog, cached...)

	// ---- Local mirror (events without a stored id) ----
	// Registered before /:id so the static segment wins.
	g.GET("/local/:fingerprint/reviews", rv.ListLocalReviews)
	g.POST("/local/:fingerprint/reviews", rv.AddLocalReview, optional...)

	// ---- Events ----
	g.POST("/add", ev.AddEvent, auth...)
	g.DELETE("/delete/:id", ev.DeleteEvent, auth...)
	g.GET("/:id", ev.GetEvent)
	g.GET("/:id/ics", ev.ICS)
	g.GET("/:id/qrcode", ev.QRCode)

	// ---- RSVP ----
	g.POST("/:id/rsvp", ev.RSVP, auth...)
	g.DELETE("/:id/rsvp", ev.CancelRSVP, auth...)

	// ---- Durable reviews ----
	// The handler itself reports a missing login so the client sees the
	// review-specific message.
	g.GET("/:id/reviews", rv.ListReviews)
	g.POST("/:id/reviews", rv.AddReview, optional...)
}

// identity pairs a token middleware with the account check.
func identity(token echo.MiddlewareFunc, accounts middleware.AccountChecker) []echo.MiddlewareFunc {
	if accounts == nil {
		return []echo.MiddlewareFunc{token}
	}
	return []echo.MiddlewareFunc{token, middleware.RequireAccount(accounts)}
}
