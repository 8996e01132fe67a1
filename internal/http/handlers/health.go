package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/learnhub/internal/health"
	"github.com/gin-gonic/gin"
)

type HealthChecker interface {
	CheckAll(ctx context.Context) health.Overall
	Check(ctx context.Context, service string) (health.Report, bool)
}

type HealthHandler struct {
	checker        HealthChecker
	ready          func(ctx context.Context) error
	isShuttingDown func() bool
}

// NewHealthHandler takes the readiness probe separately so /readyz stays cheap.
func NewHealthHandler(checker HealthChecker, ready func(ctx context.Context) error, isShuttingDown func() bool) *HealthHandler {
	if isShuttingDown == nil {
		isShuttingDown = func() bool { return false }
	}
	return &HealthHandler{checker: checker, ready: ready, isShuttingDown: isShuttingDown}
}

func statusCode(s health.Status) int {
	if s == health.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	// degraded non-critical dependencies are warnings, not outages
	return http.StatusOK
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.isShuttingDown() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	if h.ready != nil {
		cctx, cancel := requestCtx(ctx, 500*time.Millisecond)
		defer cancel()

		if err := h.ready(cctx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// GET /health/:service
func (h *HealthHandler) Service(ctx *gin.Context) {
	name := ctx.Param("service")

	r, found := h.checker.Check(ctx.Request.Context(), name)
	if !found {
		RespondNotFound(ctx, "Unknown service")
		return
	}

	body := gin.H{
		"status":       r.Status,
		"service":      r.Service,
		"timestamp":    r.Timestamp,
		"responseTime": r.ResponseTime,
	}
	if r.Details != "" {
		body["details"] = r.Details
	}
	if r.Error != "" {
		body["error"] = r.Error
	}

	if r.Status == health.StatusDegraded {
		ctx.Header("Warning", `199 - "`+r.Service+` degraded"`)
	}

	ctx.JSON(statusCode(r.Status), body)
}

// GET /health
func (h *HealthHandler) Overall(ctx *gin.Context) {
	o := h.checker.CheckAll(ctx.Request.Context())

	if o.Overall == health.StatusDegraded {
		ctx.Header("Warning", `199 - "degraded dependencies"`)
	}

	ctx.JSON(statusCode(o.Overall), o)
}
