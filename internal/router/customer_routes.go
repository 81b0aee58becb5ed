package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// CustomerHandlers groups the handlers served to signed-in users.
type CustomerHandlers struct {
	Hotels   *handler.HotelHandler
	Bookings *handler.BookingHandler
	Profile  *handler.ProfileHandler
}

// RegisterCustomer registers the endpoints of signed-in users under /v1.
// Staff accounts may book too.  checkout, when non-nil, limits the two
// checkout writes on top of the global limiter.
func RegisterCustomer(e *echo.Echo, h CustomerHandlers, jwtSecret string, checkout echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleStaff),
	)
	var limited []echo.MiddlewareFunc
	if checkout != nil {
		limited = append(limited, checkout)
	}

	g.POST("/hotels/:id/reviews", h.Hotels.CreateReview)

	// checkout
	g.POST("/hotels/:id/rooms/:room/selection", h.Bookings.SelectDates, limited...)
	g.GET("/hotels/:id/rooms/:room/selection", h.Bookings.GetSelection)
	g.DELETE("/hotels/:id/rooms/:room/selection", h.Bookings.ReleaseSelection)
	g.POST("/hotels/:id/rooms/:room/confirm", h.Bookings.Confirm, limited...)

	g.GET("/my-bookings", h.Bookings.MyBookings)
	g.PATCH("/bookings/:id", h.Bookings.EditBooking)
	g.POST("/bookings/:id/cancel", h.Bookings.CancelBooking)

	g.GET("/profile", h.Profile.GetProfile)
	g.PUT("/profile", h.Profile.UpdateProfile)
	g.DELETE("/profile", h.Profile.DeleteProfile)
	g.POST("/profile/phones", h.Profile.AddPhone)
	g.DELETE("/profile/phones/:phone", h.Profile.DeletePhone)
}
