package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = echo.HeaderXRequestID

// requestIDKey is the echo context key the id is stored under.
const requestIDKey = "request_id"

// RequestID assigns every request an id, reusing an inbound X-Request-ID.
// The id is echoed in the response and stored on the echo context for the
// logger and recovery middleware.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator:    uuid.NewString,
		TargetHeader: RequestIDHeader,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(requestIDKey, id)
		},
	})
}

// RequestIDFrom returns the id assigned by RequestID, or "".
func RequestIDFrom(c echo.Context) string {
	rid, _ := c.Get(requestIDKey).(string)
	return rid
}
