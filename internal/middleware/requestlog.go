package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLog assigns every request an id (reusing a well-formed incoming
// X-Request-ID) and writes one access log entry per request with the
// trace id of the active span, if any.
func RequestLog(log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			rid := req.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(rid); err != nil {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, rid)
			c.Set("request_id", rid)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"type":       "access",
				"request_id": rid,
				"method":     req.Method,
				"path":       req.URL.Path,
				"route":      c.Path(),
				"status":     c.Response().Status,
				"latency":    time.Since(start).String(),
				"remote_ip":  c.RealIP(),
			}
			if sc := trace.SpanContextFromContext(req.Context()); sc.IsValid() {
				fields["trace_id"] = sc.TraceID().String()
			}
			if id, ok := CustomerID(c); ok {
				fields["customer_id"] = id
			}
			entry := log.WithFields(fields)
			if c.Response().Status >= 500 {
				entry.Error("request failed")
			} else {
				entry.Info("request")
			}
			return nil
		}
	}
}
