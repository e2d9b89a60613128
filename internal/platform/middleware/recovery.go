package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a 500 and logs the panic with the
// request id and the panicking goroutine's stack.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		StackSize:       4 << 10,
		DisableStackAll: true,
		// Hand the 500 back up the chain so the error handler renders it.
		DisableErrorHandler: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error().
				Str("request_id", RequestIDFrom(c)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Str("panic", err.Error()).
				Bytes("stack", stack).
				Msg("panic recovered")
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
		},
	})
}
