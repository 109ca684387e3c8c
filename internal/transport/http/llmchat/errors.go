package llmchat

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/worldrag/internal/chat"
	"github.com/xiaot623/worldrag/internal/domain"
	"github.com/xiaot623/worldrag/internal/service"
)

// StatusClientClosedRequest is reported when the caller went away mid-turn.
const StatusClientClosedRequest = 499

// toAPIError maps a service error to its HTTP status and error body.
func toAPIError(err error) (int, domain.APIError) {
	apiErr := domain.APIError{Message: err.Error(), Retryable: chat.Retryable(err)}

	var blocked *service.PolicyBlockedError
	var retrievalErr *chat.RetrievalError
	var generationErr *chat.GenerationError

	switch {
	case errors.Is(err, chat.ErrEmptyQuery):
		apiErr.Code = domain.ErrorCodeEmptyQuery
		return http.StatusBadRequest, apiErr
	case errors.Is(err, service.ErrInvalidSessionID):
		apiErr.Code = domain.ErrorCodeBadRequest
		return http.StatusBadRequest, apiErr
	case errors.As(err, &blocked):
		apiErr.Code = domain.ErrorCodeQueryBlocked
		return http.StatusForbidden, apiErr
	case errors.Is(err, service.ErrSessionNotFound):
		apiErr.Code = domain.ErrorCodeSessionNotFound
		return http.StatusNotFound, apiErr
	case errors.Is(err, context.DeadlineExceeded):
		apiErr.Code = domain.ErrorCodeTimeout
		return http.StatusGatewayTimeout, apiErr
	case errors.Is(err, context.Canceled):
		apiErr.Code = domain.ErrorCodeCancelled
		return StatusClientClosedRequest, apiErr
	case errors.As(err, &retrievalErr):
		apiErr.Code = domain.ErrorCodeRetrievalFailed
		return http.StatusServiceUnavailable, apiErr
	case errors.As(err, &generationErr):
		apiErr.Code = domain.ErrorCodeGenerationFailed
		return http.StatusBadGateway, apiErr
	default:
		apiErr.Code = domain.ErrorCodeInternal
		apiErr.Message = "internal error"
		return http.StatusInternalServerError, apiErr
	}
}

func writeError(c echo.Context, err error) error {
	status, apiErr := toAPIError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Str("code", string(apiErr.Code)).Msg("chat request failed")
	}
	return c.JSON(status, domain.ErrorBody{Error: apiErr})
}
