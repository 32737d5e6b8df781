package http

import (
	"net/http"

	"stock-price-alert/internal/monitor/service"
	"stock-price-alert/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swagger "github.com/swaggo/echo-swagger"
)

// NewServer builds the Echo instance serving the alert API, /health,
// /metrics and the Swagger UI. The swagger route serves whatever spec the
// binary registered by importing the docs package.
func NewServer(alertService service.AlertService, gatherer prometheus.Gatherer, log *logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiV1 := e.Group("/api/v1")
	alertHandler := NewAlertHandler(alertService, log)
	alertHandler.RegisterRoutes(apiV1.Group("/alerts"))

	e.GET("/swagger/*", swagger.WrapHandler)

	return e
}
