package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// HotelBookingLister lists the bookings of a hotel.
type HotelBookingLister interface {
	ListByHotel(ctx context.Context, hotelID uint64) ([]model.BookingWithPayment, error)
}

// StaffHandler lets staff maintain the catalogue.  Purge, when set, drops
// cached public responses after every successful write.
type StaffHandler struct {
	Hotels   HotelStore
	Rooms    RoomStore
	Offers   OfferStore
	Bookings HotelBookingLister
	Purge    func(ctx context.Context) error
	Log      *logrus.Logger
}

func NewStaffHandler(hotels HotelStore, rooms RoomStore, offers OfferStore, bookings HotelBookingLister, purge func(ctx context.Context) error, log *logrus.Logger) *StaffHandler {
	if hotels == nil || rooms == nil || offers == nil || bookings == nil {
		panic("nil repository passed to NewStaffHandler")
	}
	return &StaffHandler{Hotels: hotels, Rooms: rooms, Offers: offers, Bookings: bookings, Purge: purge, Log: log}
}

type hotelReq struct {
	Name        string   `json:"name" validate:"required,max=100"`
	City        string   `json:"city" validate:"required,max=50"`
	State       string   `json:"state" validate:"max=50"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Contact     string   `json:"contact" validate:"max=100"`
	Description string   `json:"description" validate:"max=2000"`
}

type roomReq struct {
	RoomNumber   string `json:"room_number" validate:"required,max=10"`
	RoomType     string `json:"room_type" validate:"required,max=50"`
	Capacity     uint32 `json:"capacity" validate:"required,gte=1,lte=20"`
	PriceCents   int64  `json:"price_cents" validate:"gte=0"`
	Availability *bool  `json:"availability"`
}

type roomPatchReq struct {
	RoomType     *string `json:"room_type" validate:"omitempty,min=1,max=50"`
	Capacity     *uint32 `json:"capacity" validate:"omitempty,gte=1,lte=20"`
	PriceCents   *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	Availability *bool   `json:"availability"`
}

type offerReq struct {
	Description     string  `json:"description" validate:"required,max=255"`
	StartDate       string  `json:"start_date" validate:"required"`
	EndDate         string  `json:"end_date" validate:"required"`
	DiscountPercent float64 `json:"discount_percent" validate:"gt=0,lte=100"`
}

// CreateHotel handles POST /v1/staff/hotels.
func (h *StaffHandler) CreateHotel(c echo.Context) error {
	var req hotelReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	hotel := model.Hotel{
		Name:        strings.TrimSpace(req.Name),
		City:        strings.TrimSpace(req.City),
		State:       strings.TrimSpace(req.State),
		Rating:      req.Rating,
		Contact:     strings.TrimSpace(req.Contact),
		Description: strings.TrimSpace(req.Description),
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if err := h.Hotels.Create(ctx, &hotel); err != nil {
		return repoError(c, h.Log, err, "create hotel failed")
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, hotel)
}

// CreateRoom handles POST /v1/staff/hotels/:id/rooms.  New rooms are
// available unless the request says otherwise.
func (h *StaffHandler) CreateRoom(c echo.Context) error {
	hotelID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	var req roomReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	rm := model.Room{
		HotelID:      hotelID,
		RoomNumber:   strings.TrimSpace(req.RoomNumber),
		RoomType:     strings.TrimSpace(req.RoomType),
		Capacity:     req.Capacity,
		PriceCents:   req.PriceCents,
		Availability: req.Availability == nil || *req.Availability,
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if _, err := h.Hotels.GetByID(ctx, hotelID); err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	if err := h.Rooms.Create(ctx, rm); err != nil {
		return repoError(c, h.Log, err, "create room failed")
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, rm)
}

// UpdateRoom handles PATCH /v1/staff/hotels/:id/rooms/:room.
func (h *StaffHandler) UpdateRoom(c echo.Context) error {
	hotelID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	room, ok := roomParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room number"})
	}
	var req roomPatchReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	rm, err := h.Rooms.Update(ctx, hotelID, room, repository.RoomUpdate{
		RoomType:     trimmed(req.RoomType),
		Capacity:     req.Capacity,
		PriceCents:   req.PriceCents,
		Availability: req.Availability,
	})
	if err != nil {
		return repoError(c, h.Log, err, "update room failed")
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, rm)
}

// CreateOffer handles POST /v1/staff/hotels/:id/offers.
func (h *StaffHandler) CreateOffer(c echo.Context) error {
	hotelID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	var req offerReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must not be before start_date"})
	}
	o := model.Offer{
		HotelID:         hotelID,
		Description:     strings.TrimSpace(req.Description),
		StartDate:       start,
		EndDate:         end,
		DiscountPercent: req.DiscountPercent,
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if _, err := h.Hotels.GetByID(ctx, hotelID); err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	if err := h.Offers.Create(ctx, &o); err != nil {
		return repoError(c, h.Log, err, "create offer failed")
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, o)
}

// HotelBookings handles GET /v1/staff/hotels/:id/bookings.
func (h *StaffHandler) HotelBookings(c echo.Context) error {
	hotelID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if _, err := h.Hotels.GetByID(ctx, hotelID); err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	items, err := h.Bookings.ListByHotel(ctx, hotelID)
	if err != nil {
		return repoError(c, h.Log, err, "failed to list bookings")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *StaffHandler) purge(ctx context.Context) {
	purgeCache(ctx, h.Purge, h.Log)
}

// purgeCache drops cached public responses.  Failures are logged; the
// write that triggered it has already succeeded.
func purgeCache(ctx context.Context, purge func(ctx context.Context) error, log *logrus.Logger) {
	if purge == nil {
		return
	}
	if err := purge(context.WithoutCancel(ctx)); err != nil {
		if log == nil {
			log = logrus.StandardLogger()
		}
		log.WithError(err).Warn("purge response cache failed")
	}
}
