package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventica/internal/handler"
	"github.com/iliyamo/eventica/internal/middleware"
)

// RegisterProfile registers the signed-in user's profile endpoints under
// /api/profile.  Every route requires a valid access token for a live
// account.
func RegisterProfile(e *echo.Echo, p *handler.ProfileHandler, jwtSecret string, accounts middleware.AccountChecker) {
	g := e.Group("/api/profile", identity(middleware.JWTAuth(jwtSecret), accounts)...)
	g.GET("/getprofile", p.GetProfile)
	g.POST("/editprofile", p.EditProfile)
	g.DELETE("/deleteProfile", p.DeleteProfile)
}
