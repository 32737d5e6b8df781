package http

import (
	"errors"
	"net/http"

	"stock-price-alert/internal/entity"
	"stock-price-alert/internal/monitor/dto"
	"stock-price-alert/internal/monitor/service"
	"stock-price-alert/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertHandler handles HTTP requests for alerts.
type AlertHandler struct {
	alertService service.AlertService
	logger       *logger.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService service.AlertService, logger *logger.Logger) *AlertHandler {
	return &AlertHandler{alertService: alertService, logger: logger}
}

// RegisterRoutes registers the alert routes to the Echo group.
func (h *AlertHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListAlerts)
	g.POST("", h.CreateAlert)
	g.GET("/:id", h.GetAlert)
	g.PATCH("/:id", h.UpdateAlert)
	g.DELETE("/:id", h.DeleteAlert)
	g.POST("/:id/enable", h.EnableAlert)
	g.POST("/:id/disable", h.DisableAlert)
}

// ListAlerts godoc
// @Summary List alerts
// @Description List alerts, optionally filtered by status and ticker
// @Tags alerts
// @Produce  json
// @Param   status  query   string  false   "active, triggered, disabled or all"
// @Param   ticker  query   string  false   "Ticker symbol"
// @Success 200 {array} dto.AlertResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /alerts [get]
func (h *AlertHandler) ListAlerts(c echo.Context) error {
	var param dto.ListAlertsParam
	if err := c.Bind(&param); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid query parameters"})
	}

	alerts, err := h.alertService.List(c.Request().Context(), param)
	if err != nil {
		return h.writeError(c, err)
	}

	resp := make([]dto.AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		resp = append(resp, dto.NewAlertResponse(a))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetAlert godoc
// @Summary Get an alert by ID
// @Tags alerts
// @Produce  json
// @Param   id  path    string  true    "Alert ID"
// @Success 200 {object} dto.AlertResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /alerts/{id} [get]
func (h *AlertHandler) GetAlert(c echo.Context) error {
	alert, err := h.alertService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewAlertResponse(*alert))
}

// CreateAlert godoc
// @Summary Create a new alert
// @Tags alerts
// @Accept  json
// @Produce  json
// @Param   alert  body    dto.CreateAlertRequest   true    "Alert to create"
// @Success 201 {object} dto.AlertResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /alerts [post]
func (h *AlertHandler) CreateAlert(c echo.Context) error {
	var req dto.CreateAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	alert, err := h.alertService.Create(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.NewAlertResponse(*alert))
}

// UpdateAlert godoc
// @Summary Update an alert
// @Description Change the target price, direction or one-time flag of an alert
// @Tags alerts
// @Accept  json
// @Produce  json
// @Param   id     path    string                  true    "Alert ID"
// @Param   alert  body    dto.UpdateAlertRequest  true    "Fields to change"
// @Success 200 {object} dto.AlertResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /alerts/{id} [patch]
func (h *AlertHandler) UpdateAlert(c echo.Context) error {
	var req dto.UpdateAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	alert, err := h.alertService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewAlertResponse(*alert))
}

// DeleteAlert godoc
// @Summary Delete an alert
// @Tags alerts
// @Param   id  path    string  true    "Alert ID"
// @Success 204 {object} nil
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /alerts/{id} [delete]
func (h *AlertHandler) DeleteAlert(c echo.Context) error {
	if err := h.alertService.Remove(c.Request().Context(), c.Param("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// EnableAlert godoc
// @Summary Enable an alert
// @Tags alerts
// @Produce  json
// @Param   id  path    string  true    "Alert ID"
// @Success 200 {object} dto.AlertResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /alerts/{id}/enable [post]
func (h *AlertHandler) EnableAlert(c echo.Context) error {
	alert, err := h.alertService.Enable(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewAlertResponse(*alert))
}

// DisableAlert godoc
// @Summary Disable an alert
// @Tags alerts
// @Produce  json
// @Param   id  path    string  true    "Alert ID"
// @Success 200 {object} dto.AlertResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /alerts/{id}/disable [post]
func (h *AlertHandler) DisableAlert(c echo.Context) error {
	alert, err := h.alertService.Disable(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto.NewAlertResponse(*alert))
}

func (h *AlertHandler) writeError(c echo.Context, err error) error {
	switch {
	case entity.IsValidationError(err):
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Alert not found"})
	default:
		h.logger.ErrorContext(c.Request().Context(), "Alert request failed",
			logger.StringField("path", c.Path()), logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}
