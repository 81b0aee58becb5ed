package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

// CustomerStore is the account storage used by auth and profile handlers.
type CustomerStore interface {
	Create(ctx context.Context, c *model.Customer, password string, cost int) error
	GetByEmail(ctx context.Context, email string) (model.Customer, error)
	GetByID(ctx context.Context, id uint64) (model.Customer, error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, customerID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForCustomer(ctx context.Context, customerID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Customers CustomerStore
	Tokens    TokenStore
	Phones    PhoneAdder // optional
	Log       *logrus.Logger
}

func NewAuthHandler(cfg config.Config, customers CustomerStore, tokens TokenStore, phones PhoneAdder, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Customers: customers, Tokens: tokens, Phones: phones, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	City        string `json:"city" validate:"max=50"`
	State       string `json:"state" validate:"max=50"`
	Country     string `json:"country" validate:"max=50"`
	Phone       string `json:"phone" validate:"omitempty,max=15"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type customerPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	Customer customerPart `json:"customer"`
	Access   tokenPart    `json:"access"`
	Refresh  tokenPart    `json:"refresh"`
}

// PhoneAdder stores the phone given at registration as the primary
// number.
type PhoneAdder interface {
	Add(ctx context.Context, p model.CustomerPhone) error
}

// Register creates a customer account and returns a token pair.  Staff
// accounts cannot be created through this endpoint.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	cust := model.Customer{
		Email:     req.Email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		City:      optional(req.City),
		State:     optional(req.State),
		Country:   optional(req.Country),
	}
	if req.DateOfBirth != "" {
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_of_birth must be YYYY-MM-DD"})
		}
		cust.DateOfBirth = &dob
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	if err := h.Customers.Create(ctx, &cust, req.Password, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return repoError(c, h.Log, err, "create customer failed")
	}
	if h.Phones != nil && req.Phone != "" {
		p := model.CustomerPhone{CustomerID: cust.ID, PhoneNumber: strings.TrimSpace(req.Phone), IsPrimary: true}
		if err := h.Phones.Add(ctx, p); err != nil {
			h.logger().WithError(err).WithField("customer_id", cust.ID).Warn("auth: store phone failed")
		}
	}
	return h.issuePair(ctx, c, http.StatusCreated, cust)
}

// Login verifies the credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	cust, err := h.Customers.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return repoError(c, h.Log, err, "query failed")
	}
	if !utils.VerifyPassword(cust.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !cust.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	}
	return h.issuePair(ctx, c, http.StatusOK, cust)
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	hash, ok := refreshHash(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	cust, err := h.refreshOwner(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return repoError(c, h.Log, err, "revoke refresh failed")
	}
	return h.issuePair(ctx, c, http.StatusOK, cust)
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	hash, ok := refreshHash(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	cust, err := h.refreshOwner(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, cust.ID, cust.Role(), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes one refresh token when given in the body, or every
// refresh token of the bearer when only an access token is presented.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid, _ = claims.CustomerID()
		}
	}
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := requestCtx(c, defaultTimeout)
	defer cancel()

	switch {
	case raw != "":
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return repoError(c, h.Log, err, "logout failed")
		}
	case uid != 0:
		if err := h.Tokens.RevokeAllForCustomer(ctx, uid); err != nil {
			return repoError(c, h.Log, err, "logout failed")
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me echoes the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := customerID(c)
	if !ok {
		return unauthorized(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"customer_id": id, "role": c.Get("role")})
}

func (h *AuthHandler) refreshOwner(ctx context.Context, hash string) (model.Customer, error) {
	id, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return model.Customer{}, err
	}
	cust, err := h.Customers.GetByID(ctx, id)
	if err != nil {
		return model.Customer{}, err
	}
	if !cust.IsActive {
		return model.Customer{}, repository.ErrForbidden
	}
	return cust, nil
}

func (h *AuthHandler) issuePair(ctx context.Context, c echo.Context, status int, cust model.Customer) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, cust.ID, cust.Role(), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, cust.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return repoError(c, h.Log, err, "save refresh failed")
	}
	return c.JSON(status, authResp{
		Customer: customerPart{ID: cust.ID, Email: cust.Email, Role: cust.Role()},
		Access:   tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh:  tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

func (h *AuthHandler) logger() *logrus.Logger {
	if h.Log == nil {
		return logrus.StandardLogger()
	}
	return h.Log
}

func refreshHash(c echo.Context) (string, bool) {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return "", false
	}
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		return "", false
	}
	return utils.HashRefreshRaw(raw), true
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
