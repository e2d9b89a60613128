package vitals

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ruralcare/telehealth/internal/platform/auth"
	"github.com/ruralcare/telehealth/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With().Str("component", "vitals").Logger()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleHealthWorker, auth.RoleSpecialist))
	g.GET("/patients/:id/vitals", h.GetLatestVitals)
	g.GET("/patients/:id/analyses", h.ListAnalyses)
}

func (h *Handler) GetLatestVitals(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	out, err := h.svc.LatestVitals(c.Request().Context(), pid)
	if err != nil {
		h.logger.Error().Err(err).Str("patient_id", pid.String()).Msg("latest vitals lookup failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListAnalyses(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg, err := pagination.Parse(c)
	if err != nil {
		return err
	}
	items, total, err := h.svc.History(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		h.logger.Error().Err(err).Str("patient_id", pid.String()).Msg("analysis history lookup failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, pg))
}
