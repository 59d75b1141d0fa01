package handler

import (
	"errors"
	"net/http"

	"github.com/askpage/askpage/internal/api/response"
	"github.com/askpage/askpage/internal/domain"
	"github.com/askpage/askpage/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// writeServiceError maps service-layer errors onto HTTP statuses. Internal
// detail stays in the log; the body carries only what the widget can act on.
func writeServiceError(w http.ResponseWriter, err error) {
	var rateErr *service.RateLimitError
	if errors.As(err, &rateErr) {
		response.TooManyRequests(w, "too many requests", rateErr.RetryAfterSeconds)
		return
	}

	var limitErr *service.ConversationLimitError
	if errors.As(err, &limitErr) {
		response.JSON(w, http.StatusTooManyRequests, map[string]any{
			"error": "Conversation limit reached",
			"limit": limitErr.Limit,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalid):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		response.Unauthorized(w, "missing or invalid visitor token")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		// Provider detail stays in the log; the client sees a plain 500.
		log.Error().Err(err).Msg("upstream provider error")
		response.InternalError(w, "upstream model unavailable")
	default:
		log.Error().Err(err).Msg("request failed")
		response.InternalError(w, "internal server error")
	}
}
