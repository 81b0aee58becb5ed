package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/booking"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// BookingLister lists a customer's bookings with their payments.
type BookingLister interface {
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.BookingWithPayment, error)
}

// BookingHandler exposes the two-step checkout and booking management to
// authenticated customers.  All methods assume JWTAuth has run.
type BookingHandler struct {
	Svc      *booking.Service
	Bookings BookingLister
	Log      *logrus.Logger
	Timeout  time.Duration
}

func NewBookingHandler(svc *booking.Service, bookings BookingLister, timeout time.Duration, log *logrus.Logger) *BookingHandler {
	if svc == nil || bookings == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, Bookings: bookings, Log: log, Timeout: timeout}
}

type datesReq struct {
	Checkin  string `json:"checkin"`
	Checkout string `json:"checkout"`
}

type confirmReq struct {
	PaymentMode string `json:"payment_mode" validate:"omitempty,oneof=Card Cash UPI NetBanking Wallet"`
}

type cancelReq struct {
	Reason string `json:"reason" validate:"max=255"`
}

type selectionResp struct {
	Selection selectionView `json:"selection"`
	Quote     booking.Quote `json:"quote"`
}

type selectionView struct {
	HotelID    uint64    `json:"hotel_id"`
	RoomNumber string    `json:"room_number"`
	Checkin    string    `json:"checkin"`
	Checkout   string    `json:"checkout"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func viewSelection(s model.Selection) selectionView {
	return selectionView{
		HotelID:    s.HotelID,
		RoomNumber: s.RoomNumber,
		Checkin:    s.Checkin.Format(dateLayout),
		Checkout:   s.Checkout.Format(dateLayout),
		ExpiresAt:  s.ExpiresAt,
	}
}

// target extracts the caller and the (hotel, room) path parameters.
func (h *BookingHandler) target(c echo.Context) (uid, hotelID uint64, room string, err error) {
	uid, ok := customerID(c)
	if !ok {
		return 0, 0, "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if hotelID, ok = pathID(c, "id"); !ok {
		return 0, 0, "", echo.NewHTTPError(http.StatusBadRequest, "invalid hotel id")
	}
	if room, ok = roomParam(c); !ok {
		return 0, 0, "", echo.NewHTTPError(http.StatusBadRequest, "invalid room number")
	}
	return uid, hotelID, room, nil
}

// bindDates reads and parses the checkin/checkout pair.
func bindDates(c echo.Context) (checkin, checkout time.Time, err error) {
	var req datesReq
	if err := c.Bind(&req); err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if checkin, err = parseDate(req.Checkin); err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "checkin must be YYYY-MM-DD")
	}
	if checkout, err = parseDate(req.Checkout); err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "checkout must be YYYY-MM-DD")
	}
	return checkin, checkout, nil
}

// SelectDates handles POST /v1/hotels/:id/rooms/:room/selection, the first
// checkout step.  It returns the stored selection and the price quote.
func (h *BookingHandler) SelectDates(c echo.Context) error {
	uid, hotelID, room, err := h.target(c)
	if err != nil {
		return err
	}
	checkin, checkout, err := bindDates(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	sel, quote, err := h.Svc.SubmitDateRange(ctx, uid, hotelID, room, checkin, checkout)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, selectionResp{Selection: viewSelection(sel), Quote: quote})
}

// GetSelection handles GET /v1/hotels/:id/rooms/:room/selection, the
// payment confirmation page.
func (h *BookingHandler) GetSelection(c echo.Context) error {
	uid, hotelID, room, err := h.target(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	sel, quote, err := h.Svc.Quote(ctx, uid, hotelID, room)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, selectionResp{Selection: viewSelection(sel), Quote: quote})
}

// ReleaseSelection handles DELETE /v1/hotels/:id/rooms/:room/selection.
func (h *BookingHandler) ReleaseSelection(c echo.Context) error {
	uid, hotelID, room, err := h.target(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	if err := h.Svc.ReleaseSelection(ctx, uid, hotelID, room); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Confirm handles POST /v1/hotels/:id/rooms/:room/confirm, the second
// checkout step.  It creates the booking and its payment atomically.
func (h *BookingHandler) Confirm(c echo.Context) error {
	uid, hotelID, room, err := h.target(c)
	if err != nil {
		return err
	}
	var req confirmReq
	if c.Request().ContentLength != 0 {
		if ok, err := bindValid(c, &req); !ok {
			return err
		}
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	conf, err := h.Svc.ConfirmPayment(ctx, uid, hotelID, room, req.PaymentMode)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, conf)
}

// MyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	uid, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	items, err := h.Bookings.ListByCustomer(ctx, uid)
	if err != nil {
		return repoError(c, h.Log, err, "failed to list bookings")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// EditBooking handles PATCH /v1/bookings/:id.  It moves the booking to new
// dates and reprices its payment.
func (h *BookingHandler) EditBooking(c echo.Context) error {
	uid, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	checkin, checkout, err := bindDates(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	b, err := h.Svc.EditBooking(ctx, uid, id, checkin, checkout)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// CancelBooking handles POST /v1/bookings/:id/cancel.  The reason is
// optional.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	uid, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req cancelReq
	if c.Request().ContentLength != 0 {
		if ok, err := bindValid(c, &req); !ok {
			return err
		}
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	cancellation, err := h.Svc.CancelBooking(ctx, uid, id, optional(strings.TrimSpace(req.Reason)))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, cancellation)
}
