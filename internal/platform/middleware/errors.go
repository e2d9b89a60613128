package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// ErrorHandler renders errors as {"error": "..."}. Anything that is not an
// *echo.HTTPError is logged and reported as a generic 500.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprint(he.Message)
			if he.Internal != nil {
				logger.Warn().Err(he.Internal).Str("request_id", RequestIDFrom(c)).Msg("http error")
			}
		} else {
			logger.Error().Err(err).Str("request_id", RequestIDFrom(c)).Msg("unhandled error")
			msg = "internal server error"
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, ErrorBody{Error: msg})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
