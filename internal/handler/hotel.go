package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/booking"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// HotelStore reads and creates hotels.
type HotelStore interface {
	Search(ctx context.Context, q repository.HotelSearchQuery) ([]repository.HotelListItem, int64, error)
	GetByID(ctx context.Context, id uint64) (model.Hotel, error)
	Create(ctx context.Context, h *model.Hotel) error
	Facilities(ctx context.Context, hotelID uint64) ([]model.Facility, error)
}

// RoomStore reads and maintains rooms.
type RoomStore interface {
	Get(ctx context.Context, hotelID uint64, roomNumber string) (model.Room, error)
	ListByHotel(ctx context.Context, hotelID uint64) ([]model.Room, error)
	Create(ctx context.Context, rm model.Room) error
	Update(ctx context.Context, hotelID uint64, roomNumber string, u repository.RoomUpdate) (model.Room, error)
}

// OfferStore reads and creates hotel offers.
type OfferStore interface {
	ListByHotel(ctx context.Context, hotelID uint64) ([]model.Offer, error)
	Create(ctx context.Context, o *model.Offer) error
}

// ReviewStore reads and writes reviews.
type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	ListByHotel(ctx context.Context, hotelID uint64) ([]model.Review, error)
}

// HotelHandler serves the public hotel catalogue and reviews.
type HotelHandler struct {
	Hotels  HotelStore
	Rooms   RoomStore
	Offers  OfferStore
	Reviews ReviewStore
	Log     *logrus.Logger
	Now     func() time.Time
	// Purge, when set, drops cached hotel pages after a review is posted.
	Purge func(ctx context.Context) error
}

func NewHotelHandler(hotels HotelStore, rooms RoomStore, offers OfferStore, reviews ReviewStore, log *logrus.Logger) *HotelHandler {
	if hotels == nil || rooms == nil || offers == nil || reviews == nil {
		panic("nil repository passed to NewHotelHandler")
	}
	return &HotelHandler{Hotels: hotels, Rooms: rooms, Offers: offers, Reviews: reviews, Log: log, Now: time.Now}
}

func (h *HotelHandler) today() time.Time {
	if h.Now == nil {
		return booking.Day(time.Now())
	}
	return booking.Day(h.Now())
}

// hotelDetail is the hotel page: the hotel with its rooms and images,
// facilities, reviews (newest first) and offers.
type hotelDetail struct {
	Hotel       model.Hotel      `json:"hotel"`
	Rooms       []model.Room     `json:"rooms"`
	Facilities  []model.Facility `json:"facilities"`
	Reviews     []model.Review   `json:"reviews"`
	Offers      []model.Offer    `json:"offers"`
	ActiveOffer *model.Offer     `json:"active_offer,omitempty"`
}

// ListHotels handles GET /v1/hotels.  Query parameters: q (matches name,
// city or state), filter_offers=on to keep hotels with an offer active
// today, page and page_size.
func (h *HotelHandler) ListHotels(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	size = min(size, repository.MaxSearchPageSize)
	page = min(page, repository.MaxSearchPage)
	q := repository.HotelSearchQuery{
		Q:              strings.TrimSpace(c.QueryParam("q")),
		OnlyWithOffers: isOn(c.QueryParam("filter_offers")),
		Today:          h.today(),
		Page:           page,
		PageSize:       size,
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	items, total, err := h.Hotels.Search(ctx, q)
	if err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":     items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

// GetHotel handles GET /v1/hotels/:id.
func (h *HotelHandler) GetHotel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	hotel, err := h.Hotels.GetByID(ctx, id)
	if err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	out := hotelDetail{Hotel: hotel}
	if out.Rooms, err = h.Rooms.ListByHotel(ctx, id); err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	if out.Facilities, err = h.Hotels.Facilities(ctx, id); err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	if out.Reviews, err = h.Reviews.ListByHotel(ctx, id); err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	if out.Offers, err = h.Offers.ListByHotel(ctx, id); err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	out.ActiveOffer = booking.PickOffer(out.Offers, h.today())
	return c.JSON(http.StatusOK, out)
}

type reviewReq struct {
	Rating  *float64 `json:"rating" validate:"required,gte=0,lte=5"`
	Comment string   `json:"comment" validate:"max=1000"`
}

// CreateReview handles POST /v1/hotels/:id/reviews.
func (h *HotelHandler) CreateReview(c echo.Context) error {
	uid, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hotel id"})
	}
	var req reviewReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if _, err := h.Hotels.GetByID(ctx, id); err != nil {
		return repoError(c, h.Log, err, "database error")
	}
	rv := model.Review{
		CustomerID: uid,
		HotelID:    id,
		Rating:     float64(int(*req.Rating*10+0.5)) / 10,
		Comment:    strings.TrimSpace(req.Comment),
		Date:       h.today(),
	}
	if err := h.Reviews.Create(ctx, &rv); err != nil {
		return repoError(c, h.Log, err, "create review failed")
	}
	purgeCache(ctx, h.Purge, h.Log)
	return c.JSON(http.StatusCreated, rv)
}

func isOn(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}
