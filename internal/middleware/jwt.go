package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxCustomerID = "customer_id"
	CtxRole       = "role"
)

// JWTAuth validates a Bearer access token and stores the customer id
// (uint64) and role (string) in the request context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id, _ := claims.CustomerID()
			c.Set(CtxCustomerID, id)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
