package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// RegisterStaff registers catalogue maintenance under /v1/staff.  All
// routes require a valid JWT and the STAFF role.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, jwtSecret string) {
	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStaff),
	)

	g.POST("/hotels", s.CreateHotel)
	g.POST("/hotels/:id/rooms", s.CreateRoom)
	g.PATCH("/hotels/:id/rooms/:room", s.UpdateRoom)
	g.POST("/hotels/:id/offers", s.CreateOffer)
	g.GET("/hotels/:id/bookings", s.HotelBookings)
}
