package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// SecurityHeaders sets response headers for a JSON API that serves patient
// data. HSTS is only sent over TLS or behind a proxy reporting https.
func SecurityHeaders() echo.MiddlewareFunc {
	secure := echomw.SecureWithConfig(echomw.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		h := secure(next)
		return func(c echo.Context) error {
			// Findings and queues change as sessions land.
			c.Response().Header().Set("Cache-Control", "no-store")
			return h(c)
		}
	}
}
