// Package health serves liveness checks.
package health

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/worldrag/internal/service"
)

// Handler handles health requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{service: svc}
}

// RegisterRoutes registers health routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health_check", h.HealthCheck)
	e.GET("/api/health/health_check", h.HealthCheck)
}

// HealthCheck returns health status.
func (h *Handler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Health(c.Request().Context()))
}
