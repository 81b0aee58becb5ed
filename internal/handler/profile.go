package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

// ProfileStore is the account storage behind the profile pages.
type ProfileStore interface {
	GetByID(ctx context.Context, id uint64) (model.Customer, error)
	UpdateProfile(ctx context.Context, id uint64, u repository.ProfileUpdate) error
	Delete(ctx context.Context, id uint64) error
}

// PhoneStore manages a customer's phone numbers.
type PhoneStore interface {
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.CustomerPhone, error)
	Add(ctx context.Context, p model.CustomerPhone) error
	Delete(ctx context.Context, customerID uint64, phone string) error
}

// ProfileHandler lets customers read and edit their own account.
type ProfileHandler struct {
	Customers ProfileStore
	Phones    PhoneStore
	Tokens    TokenStore
	Log       *logrus.Logger
}

func NewProfileHandler(customers ProfileStore, phones PhoneStore, tokens TokenStore, log *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Customers: customers, Phones: phones, Tokens: tokens, Log: log}
}

type profileResp struct {
	model.Customer
	Phones []model.CustomerPhone `json:"phones"`
}

type profileReq struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	City        *string `json:"city" validate:"omitempty,max=50"`
	State       *string `json:"state" validate:"omitempty,max=50"`
	Country     *string `json:"country" validate:"omitempty,max=50"`
}

type phoneReq struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=5,max=15"`
	IsPrimary   bool   `json:"is_primary"`
}

// GetProfile handles GET /v1/profile.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	uid, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()
	return h.render(ctx, c, uid)
}

// UpdateProfile handles PUT /v1/profile.  Omitted fields keep their value.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	uid, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}
	var req profileReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	u := repository.ProfileUpdate{
		FirstName: trimmed(req.FirstName),
		LastName:  trimmed(req.LastName),
		City:      trimmed(req.City),
		State:     trimmed(req.State),
		Country:   trimmed(req.Country),
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_of_birth must be YYYY-MM-DD"})
		}
		u.DateOfBirth = &dob
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if err := h.Customers.UpdateProfile(ctx, uid, u); err != nil {
		return repoError(c, h.Log, err, "update profile failed")
	}
	return h.render(ctx, c, uid)
}

// DeleteProfile handles DELETE /v1/profile.  Accounts that still have
// bookings are kept.
func (h *ProfileHandler) DeleteProfile(c echo.Context) error {
	uid, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if err := h.Customers.Delete(ctx, uid); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "account has bookings and cannot be deleted"})
		}
		return repoError(c, h.Log, err, "delete profile failed")
	}
	if h.Tokens != nil {
		if err := h.Tokens.RevokeAllForCustomer(ctx, uid); err != nil {
			h.logger().WithError(err).WithField("customer_id", uid).Warn("profile: revoke tokens failed")
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// AddPhone handles POST /v1/profile/phones.
func (h *ProfileHandler) AddPhone(c echo.Context) error {
	uid, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}
	var req phoneReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	p := model.CustomerPhone{CustomerID: uid, PhoneNumber: strings.TrimSpace(req.PhoneNumber), IsPrimary: req.IsPrimary}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if err := h.Phones.Add(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "phone number already added"})
		}
		return repoError(c, h.Log, err, "add phone failed")
	}
	return c.JSON(http.StatusCreated, p)
}

// DeletePhone handles DELETE /v1/profile/phones/:phone.
func (h *ProfileHandler) DeletePhone(c echo.Context) error {
	uid, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}
	phone := strings.TrimSpace(c.Param("phone"))
	if phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid phone number"})
	}
	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if err := h.Phones.Delete(ctx, uid, phone); err != nil {
		return repoError(c, h.Log, err, "delete phone failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProfileHandler) render(ctx context.Context, c echo.Context, uid uint64) error {
	cust, err := h.Customers.GetByID(ctx, uid)
	if err != nil {
		return repoError(c, h.Log, err, "load profile failed")
	}
	phones, err := h.Phones.ListByCustomer(ctx, uid)
	if err != nil {
		return repoError(c, h.Log, err, "load phones failed")
	}
	return c.JSON(http.StatusOK, profileResp{Customer: cust, Phones: phones})
}

func (h *ProfileHandler) logger() *logrus.Logger {
	if h.Log == nil {
		return logrus.StandardLogger()
	}
	return h.Log
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
