// Package router registers the HTTP routes of the API on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check; db may be nil.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// protected /v1/me.  Logout accepts either a refresh token in the body or
// a bearer token, so it sits outside the JWT group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleStaff),
	)
}

// RegisterPublic registers the unauthenticated hotel catalogue.  cache
// fronts both pages; pass nil to serve them uncached.
func RegisterPublic(e *echo.Echo, h *handler.HotelHandler, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	e.GET("/v1/hotels", h.ListHotels, mw...)
	e.GET("/v1/hotels/:id", h.GetHotel, mw...)
}
