package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds per-client token bucket settings.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// ExpiresIn evicts idle client buckets.
	ExpiresIn time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
		ExpiresIn:         3 * time.Minute,
	}
}

// RateLimit limits each client IP to a token bucket. Operational endpoints
// are never limited.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.ExpiresIn <= 0 {
		cfg.ExpiresIn = DefaultRateLimitConfig().ExpiresIn
	}
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)
	retryAfter := "1"
	if cfg.RequestsPerSecond > 0 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / cfg.RequestsPerSecond)))
	}

	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RequestsPerSecond),
		Burst:     cfg.BurstSize,
		ExpiresIn: cfg.ExpiresIn,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return isOperational(c.Request().URL.Path)
		},
		BeforeFunc: func(c echo.Context) {
			c.Response().Header().Set("X-RateLimit-Limit", limit)
		},
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "client cannot be identified")
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			h := c.Response().Header()
			h.Set("Retry-After", retryAfter)
			h.Set("X-RateLimit-Remaining", "0")
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}

func isOperational(path string) bool {
	switch path {
	case "/health", "/health/db", "/metrics":
		return true
	}
	return false
}
