// Package llmchat serves the chat API.
package llmchat

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/worldrag/internal/service"
)

const (
	// SessionHeader carries the session id in requests and responses.
	SessionHeader = "X-Session-ID"
	// SessionCookie carries the session id for browser clients.
	SessionCookie = "session_id"
)

// Handler handles chat requests.
type Handler struct {
	service     *service.Service
	chatTimeout time.Duration
	ws          *wsServer
}

// NewHandler creates a new handler. chatTimeout bounds each turn; zero
// means no bound beyond the request's own context.
func NewHandler(svc *service.Service, chatTimeout time.Duration) *Handler {
	return &Handler{
		service:     svc,
		chatTimeout: chatTimeout,
		ws:          newWSServer(),
	}
}

// RegisterRoutes registers chat routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/llmchat")
	g.POST("/llm_chat_text", h.ChatText)
	g.GET("/sessions/:session_id/history", h.GetHistory)
	g.DELETE("/sessions/:session_id", h.ClearSession)
	g.GET("/ws", h.HandleWebSocket)
}

// resolveSessionID picks the session id from the body, the header, or the
// cookie, in that order.
func resolveSessionID(c echo.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if id := c.Request().Header.Get(SessionHeader); id != "" {
		return id
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func setSessionID(c echo.Context, sessionID string) {
	c.Response().Header().Set(SessionHeader, sessionID)
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
