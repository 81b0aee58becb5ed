package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CustomerID returns the authenticated customer's id set by JWTAuth.
func CustomerID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxCustomerID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// currentUserID identifies the caller in rate limit and cache keys.
func currentUserID(c echo.Context) string {
	if id, ok := CustomerID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
