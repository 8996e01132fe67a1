package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/content"
	"github.com/geocoder89/learnhub/internal/domain/job"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinHandleMiddleware_CountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	}

	got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/ping", "204"))
	if got != 3 {
		t.Fatalf("requests_total = %v, want 3", got)
	}
}

func TestObserveDB_ClassifiesErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	err := p.ObserveDB("users.get", func() error { return errors.New("dial tcp: connection refused") })
	if err == nil {
		t.Fatalf("expected error to pass through")
	}

	got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.get", "connection"))
	if got != 1 {
		t.Fatalf("db errors = %v, want 1", got)
	}
}

func TestObserveDB_ExpectedOutcomesAreNotErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"second moderation", content.ErrNotFound, DBOutcomeNotFound},
		{"empty queue", fmt.Errorf("claim: %w", job.ErrJobNotFound), DBOutcomeNotFound},
		{"no rows", pgx.ErrNoRows, DBOutcomeNotFound},
		{"missing user", user.ErrNotFound, DBOutcomeNotFound},
		{"reused refresh token", auth.ErrRefreshTokenRevoked, DBOutcomeRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProm(prometheus.NewRegistry())

			err := p.ObserveDB("contents.moderate", func() error { return tt.err })
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v passed through", err, tt.err)
			}

			if n := testutil.CollectAndCount(p.DbErrorsTotal); n != 0 {
				t.Fatalf("db_errors_total series = %d, want 0", n)
			}
			if n := testutil.CollectAndCount(p.DbQueryDuration); n != 1 {
				t.Fatalf("duration series = %d, want 1", n)
			}
			if got := DBOutcome(tt.err); got != tt.outcome {
				t.Fatalf("outcome = %q, want %q", got, tt.outcome)
			}
		})
	}
}

func TestDBOutcome(t *testing.T) {
	if got := DBOutcome(nil); got != DBOutcomeOK {
		t.Fatalf("nil err outcome = %q", got)
	}
	if got := DBOutcome(errors.New("boom")); got != DBOutcomeError {
		t.Fatalf("unknown err outcome = %q", got)
	}
	if got := classifyDBErr(fmt.Errorf("query: %w", context.DeadlineExceeded)); got != "timeout" {
		t.Fatalf("deadline class = %q, want timeout", got)
	}
}

func TestNilPromIsSafe(t *testing.T) {
	var p *Prom

	p.IncSubmission("review")
	p.IncModeration("review", "approve")
	p.SetHealth("database", 2)
	p.IncMonitoringReport("healthy")

	called := false
	if err := p.ObserveDB("x", func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("ObserveDB on nil prom should just run fn")
	}
}
