package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/learnhub/internal/health"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/gin-gonic/gin"
)

type MonitoringReport struct {
	Overall   health.Status `json:"overall" binding:"required,oneof=healthy degraded unhealthy"`
	Score     *float64      `json:"score" binding:"required,min=0,max=100"`
	Timestamp time.Time     `json:"timestamp" binding:"required"`
	Services  []struct {
		Service      string        `json:"service" binding:"required"`
		Status       health.Status `json:"status" binding:"required,oneof=healthy degraded unhealthy"`
		ResponseTime int64         `json:"responseTime"`
	} `json:"services" binding:"dive"`
}

type MonitoringHandler struct {
	prom *observability.Prom
	log  *slog.Logger
}

func NewMonitoringHandler(prom *observability.Prom, log *slog.Logger) *MonitoringHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MonitoringHandler{prom: prom, log: log}
}

// POST /monitoring/health
func (h *MonitoringHandler) Ingest(ctx *gin.Context) {
	var rep MonitoringReport

	if err := ctx.ShouldBindJSON(&rep); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "malformed health report", "err", err)
		RespondError(ctx, http.StatusInternalServerError, "invalid_report", "Failed to process health report", nil)
		return
	}

	attrs := []any{"overall", rep.Overall, "score", *rep.Score, "reported_at", rep.Timestamp}
	for _, s := range rep.Services {
		if s.Status != health.StatusHealthy {
			attrs = append(attrs, "service."+s.Service, s.Status)
		}
	}

	switch rep.Overall {
	case health.StatusUnhealthy:
		h.log.ErrorContext(ctx.Request.Context(), "health report unhealthy", attrs...)
	case health.StatusDegraded:
		h.log.WarnContext(ctx.Request.Context(), "health report degraded", attrs...)
	default:
		h.log.DebugContext(ctx.Request.Context(), "health report received", attrs...)
	}

	h.prom.IncMonitoringReport(string(rep.Overall))

	ctx.JSON(http.StatusOK, gin.H{
		"status":    "received",
		"timestamp": time.Now().UTC(),
	})
}
