package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ruralcare/telehealth/internal/config"
	"github.com/ruralcare/telehealth/internal/domain/analysis"
	"github.com/ruralcare/telehealth/internal/domain/findings"
	"github.com/ruralcare/telehealth/internal/domain/queue"
	"github.com/ruralcare/telehealth/internal/domain/vitals"
	"github.com/ruralcare/telehealth/internal/platform/auth"
	"github.com/ruralcare/telehealth/internal/platform/db"
	"github.com/ruralcare/telehealth/internal/platform/metrics"
	"github.com/ruralcare/telehealth/internal/platform/middleware"
)

// deps are the store-facing collaborators of the HTTP server.
type deps struct {
	sessions analysis.SessionRepository
	queue    queue.Repository
	snapshot db.SnapshotFunc
	pinger   db.Pinger
	stats    func() *db.PoolStats
}

// devIdentity is attached to requests when ENV=development.
var devIdentity = auth.Identity{
	UserID: "00000000-0000-0000-0000-000000000001",
	Roles:  []string{auth.RoleHealthWorker, auth.RoleSpecialist},
}

func newServer(cfg *config.Config, logger zerolog.Logger, d deps) (*echo.Echo, error) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if d.stats != nil {
		if err := reg.Register(db.NewPoolCollector(d.stats)); err != nil {
			return nil, err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(d.pinger, d.stats, logger))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
		rl.BurstSize = cfg.RateLimitBurst
	}

	api := e.Group("/api/v1",
		middleware.RateLimit(rl),
		middleware.RequestTimeout(cfg.RequestTimeout),
	)
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware(devIdentity))
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	vitals.NewHandler(vitals.NewService(d.sessions), logger).RegisterRoutes(api)
	findings.NewHandler(findings.NewService(d.sessions, logger, cfg.FindingsLimit), logger).RegisterRoutes(api)
	queue.NewHandler(queue.NewService(d.queue, d.snapshot, logger,
		queue.WithWindowDays(cfg.QueueWindowDays),
	), logger).RegisterRoutes(api)

	return e, nil
}
