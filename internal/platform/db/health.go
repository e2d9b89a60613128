package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// Pinger is the liveness check used by HealthHandler.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthReport struct {
	Status string     `json:"status"`
	Pool   *PoolStats `json:"pool,omitempty"`
}

// HealthHandler reports store reachability. Driver errors are logged, not
// returned, so connection strings and hosts never reach the caller.
func HealthHandler(p Pinger, stats func() *PoolStats, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		report := HealthReport{Status: "healthy"}
		if stats != nil {
			report.Pool = stats()
		}

		if err := p.Ping(ctx); err != nil {
			logger.Error().Err(err).Msg("database health check failed")
			report.Status = "unhealthy"
			if report.Pool != nil {
				report.Pool.Healthy = false
			}
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}
