// Package http provides the HTTP server implementation for worldrag.
package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/worldrag/internal/service"
	"github.com/xiaot623/worldrag/internal/transport/http/health"
	"github.com/xiaot623/worldrag/internal/transport/http/llmchat"
)

// NewServer creates and configures the HTTP server.
// chatTimeout bounds each chat turn.
func NewServer(svc *service.Service, chatTimeout time.Duration) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		ExposeHeaders: []string{llmchat.SessionHeader},
	}))

	// Handlers
	chatHandler := llmchat.NewHandler(svc, chatTimeout)
	healthHandler := health.NewHandler(svc)

	// Register Routes
	chatHandler.RegisterRoutes(e)
	healthHandler.RegisterRoutes(e)

	return e
}
