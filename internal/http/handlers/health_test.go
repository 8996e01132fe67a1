package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/learnhub/internal/health"
	"github.com/geocoder89/learnhub/internal/http/handlers"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func pingErr(err error) health.Pinger {
	return health.PingFunc(func(context.Context) error { return err })
}

func newHealthRouter(db, completion health.Pinger, shuttingDown bool) *gin.Engine {
	agg := health.NewAggregator(nil, nil, health.Database(db), health.Completion(completion))

	h := handlers.NewHealthHandler(agg, func(ctx context.Context) error {
		return db.Ping(ctx)
	}, func() bool { return shuttingDown })

	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/health", h.Overall)
	r.GET("/health/:service", h.Service)
	return r
}

func TestHealth_Service(t *testing.T) {
	tests := []struct {
		name       string
		db         health.Pinger
		completion health.Pinger
		path       string
		wantCode   int
		wantStatus health.Status
	}{
		{"database healthy", pingErr(nil), pingErr(nil), "/health/database", http.StatusOK, health.StatusHealthy},
		{"database down", pingErr(errors.New("refused")), pingErr(nil), "/health/database", http.StatusServiceUnavailable, health.StatusUnhealthy},
		{"completion not configured", pingErr(nil), nil, "/health/completion", http.StatusOK, health.StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newHealthRouter(tt.db, tt.completion, false)

			w := do(t, r, http.MethodGet, tt.path, "", nil)
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}

			body := decode[struct {
				Status  health.Status `json:"status"`
				Service string        `json:"service"`
				Error   string        `json:"error"`
				Details string        `json:"details"`
			}](t, w)
			if body.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", body.Status, tt.wantStatus)
			}
			if tt.wantStatus == health.StatusUnhealthy && body.Error == "" {
				t.Fatal("unhealthy report should carry an error")
			}
		})
	}
}

func TestHealth_UnknownService(t *testing.T) {
	r := newHealthRouter(pingErr(nil), pingErr(nil), false)

	if w := do(t, r, http.MethodGet, "/health/mainframe", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestHealth_Overall(t *testing.T) {
	tests := []struct {
		name     string
		db       health.Pinger
		want     int
		wantOver health.Status
	}{
		{"degraded is still 200", pingErr(nil), http.StatusOK, health.StatusDegraded},
		{"critical down is 503", pingErr(errors.New("down")), http.StatusServiceUnavailable, health.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newHealthRouter(tt.db, nil, false)

			w := do(t, r, http.MethodGet, "/health", "", nil)
			if w.Code != tt.want {
				t.Fatalf("code = %d", w.Code)
			}
			if got := decode[health.Overall](t, w); got.Overall != tt.wantOver || len(got.Services) != 2 {
				t.Fatalf("overall = %+v", got)
			}
		})
	}
}

func TestReadyz(t *testing.T) {
	if w := do(t, newHealthRouter(pingErr(nil), nil, false), http.MethodGet, "/readyz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("ready = %d", w.Code)
	}
	if w := do(t, newHealthRouter(pingErr(errors.New("x")), nil, false), http.MethodGet, "/readyz", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("db down = %d", w.Code)
	}
	if w := do(t, newHealthRouter(pingErr(nil), nil, true), http.MethodGet, "/readyz", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("shutting down = %d", w.Code)
	}
}

func TestMonitoringIngest(t *testing.T) {
	prom := observability.NewProm(prometheus.NewRegistry())
	h := handlers.NewMonitoringHandler(prom, nil)

	r := gin.New()
	r.POST("/monitoring/health", h.Ingest)

	report := map[string]any{
		"overall":   "degraded",
		"score":     75,
		"timestamp": time.Now().UTC(),
		"services": []map[string]any{
			{"service": "database", "status": "healthy", "responseTime": 3},
			{"service": "completion", "status": "degraded", "responseTime": 0},
		},
	}

	w := do(t, r, http.MethodPost, "/monitoring/health", "", report)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d body=%s", w.Code, w.Body.String())
	}
	if got := decode[map[string]any](t, w); got["status"] != "received" || got["timestamp"] == nil {
		t.Fatalf("body = %v", got)
	}
	if got := testutil.ToFloat64(prom.MonitoringReports.WithLabelValues("degraded")); got != 1 {
		t.Fatalf("reports counted = %v", got)
	}

	malformed := []any{
		`{"overall":`,
		map[string]any{"overall": "sideways", "score": 10, "timestamp": time.Now()},
		map[string]any{"overall": "healthy", "timestamp": time.Now()},
	}
	for _, body := range malformed {
		w := do(t, r, http.MethodPost, "/monitoring/health", "", body)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("malformed %v: code = %d", body, w.Code)
		}
		if got := decode[errorBody](t, w); got.Error.Code == "" {
			t.Fatalf("missing error body: %s", w.Body.String())
		}
	}
}
