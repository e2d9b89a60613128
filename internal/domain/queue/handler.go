package queue

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ruralcare/telehealth/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With().Str("component", "queue").Logger()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/specialists/me", auth.RequireRole(auth.RoleSpecialist))
	g.GET("/queue", h.GetQueue)
	g.GET("/queue/summary", h.GetSummary)
}

func (h *Handler) build(c echo.Context) (*Queue, error) {
	ctx := c.Request().Context()
	specialistID, err := auth.UserUUID(ctx)
	if err != nil {
		return nil, err
	}
	q, err := h.svc.Build(ctx, specialistID)
	if err != nil {
		h.logger.Error().Err(err).Str("specialist_id", specialistID.String()).Msg("queue build failed")
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return q, nil
}

func (h *Handler) GetQueue(c echo.Context) error {
	q, err := h.build(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q.Items)
}

func (h *Handler) GetSummary(c echo.Context) error {
	q, err := h.build(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q.Summary)
}
