// Package handler contains the echo HTTP handlers.  Handlers translate
// requests into repository and booking service calls and map their errors
// to status codes; every error body has the shape {"error": "..."}.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-booking/internal/booking"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

const defaultTimeout = 5 * time.Second

// dateLayout is the calendar date format accepted and returned by the API.
const dateLayout = time.DateOnly

// requestCtx bounds the database work of a request.
func requestCtx(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), d)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func customerID(c echo.Context) (uint64, bool) {
	return middleware.CustomerID(c)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// roomParam returns the trimmed room number path parameter.
func roomParam(c echo.Context) (string, bool) {
	room := strings.TrimSpace(c.Param("room"))
	return room, room != "" && len(room) <= 10
}

// parseDate reads a YYYY-MM-DD value.  An empty string yields the zero
// time, which date validation reports as missing.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// bookingError writes the response for an error returned by the booking
// service.  Validation failures name the field and rule; persistence
// failures are already logged by the service and get a generic message.
func bookingError(c echo.Context, err error) error {
	if ve := booking.IsValidationError(err); ve != nil {
		status := http.StatusBadRequest
		if errors.Is(ve, booking.ErrConflict) || errors.Is(ve, booking.ErrRoomUnavailable) {
			status = http.StatusConflict
		}
		return c.JSON(status, echo.Map{"error": ve.Err.Error(), "field": ve.Field})
	}
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, booking.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrNoActiveSelection):
		return c.JSON(http.StatusGone, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not complete the booking, please try again"})
	}
}

// repoError maps repository sentinels; anything else is logged and
// reported as a 500 with msg.
func repoError(c echo.Context, log *logrus.Logger, err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithError(err).WithField("route", c.Path()).Error(msg)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// ErrorHandler renders errors returned by handlers and by echo itself
// (unknown route, wrong method, bind failures) as {"error": "..."}.
// Unexpected errors are logged and reported as 500.
func ErrorHandler(log *logrus.Logger) echo.HTTPErrorHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		} else {
			log.WithError(err).WithField("route", c.Path()).Error("unhandled error")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, echo.Map{"error": msg})
	}
}
