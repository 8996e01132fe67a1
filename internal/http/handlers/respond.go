package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/content"
	"github.com/geocoder89/learnhub/internal/domain/job"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/geocoder89/learnhub/internal/moderation"
	"github.com/geocoder89/learnhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString(middlewares.CtxRequestID); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// requestCtx bounds a handler's collaborator calls.
func requestCtx(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondServiceError maps service and repository errors onto the API error
// taxonomy. Anything unrecognised is logged and reported as a plain 500 so
// collaborator details never reach the client.
func RespondServiceError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, moderation.ErrUnauthorized):
		RespondUnAuthorized(ctx, "unauthorized", "Please sign in to continue.")
	case errors.Is(err, moderation.ErrForbidden):
		RespondForbidden(ctx, "Your account does not have access to this action.")
	case errors.Is(err, content.ErrNotFound):
		RespondNotFound(ctx, "Content not found")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, job.ErrJobNotFound):
		RespondNotFound(ctx, "Job not found")
	case errors.Is(err, content.ErrInvalidDecision),
		errors.Is(err, content.ErrInvalidTransition),
		errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, moderation.ErrEmptyBody):
		RespondBadRequest(ctx, err.Error(), nil)
	case errors.Is(err, utils.ErrInvalidCursor):
		RespondBadRequest(ctx, "cursor is invalid", nil)
	case errors.Is(err, context.DeadlineExceeded):
		slog.Default().ErrorContext(ctx.Request.Context(), "request timed out", "err", err, "request_id", requestIDFrom(ctx))
		RespondError(ctx, http.StatusServiceUnavailable, "timeout", fallback, nil)
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, fallback)
	}
}
