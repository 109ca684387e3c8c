package llmchat

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/worldrag/internal/domain"
)

// ChatText answers one query in the caller's conversation.
// POST /api/llmchat/llm_chat_text
func (h *Handler) ChatText(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorBody{Error: domain.APIError{
			Code:    domain.ErrorCodeBadRequest,
			Message: "invalid request body",
		}})
	}

	ctx, cancel := h.turnContext(c.Request().Context())
	defer cancel()

	result, sessionID, err := h.service.Chat(ctx, resolveSessionID(c, req.SessionID), req.Query)
	if sessionID != "" {
		setSessionID(c, sessionID)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetHistory returns the committed turns of a session.
// GET /api/llmchat/sessions/:session_id/history
func (h *Handler) GetHistory(c echo.Context) error {
	sessionID := c.Param("session_id")
	history, err := h.service.History(c.Request().Context(), sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, domain.HistoryResponse{SessionID: sessionID, History: history})
}

// ClearSession resets a conversation.
// DELETE /api/llmchat/sessions/:session_id
func (h *Handler) ClearSession(c echo.Context) error {
	if err := h.service.ClearSession(c.Request().Context(), c.Param("session_id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) turnContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.chatTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, h.chatTimeout)
}
