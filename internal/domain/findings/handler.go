package findings

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ruralcare/telehealth/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With().Str("component", "findings").Logger()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleHealthWorker, auth.RoleSpecialist))
	g.GET("/patients/:id/findings", h.GetFindings)
}

func (h *Handler) GetFindings(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	out, err := h.svc.LatestFindings(c.Request().Context(), pid)
	if err != nil {
		h.logger.Error().Err(err).Str("patient_id", pid.String()).Msg("findings lookup failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, out)
}
