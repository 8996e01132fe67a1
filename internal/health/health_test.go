package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeReporter struct {
	mu    sync.Mutex
	calls []Overall
}

func (f *fakeReporter) ReportUnhealthy(_ context.Context, o Overall) {
	f.mu.Lock()
	f.calls = append(f.calls, o)
	f.mu.Unlock()
}

func failing(msg string) Pinger {
	return PingFunc(func(context.Context) error { return errors.New(msg) })
}

func ok() Pinger {
	return PingFunc(func(context.Context) error { return nil })
}

func TestCheckAll_Rollup(t *testing.T) {
	tests := []struct {
		name         string
		db           Pinger
		cache        Pinger
		completion   Pinger
		wantOverall  Status
		wantReported bool
	}{
		{"all healthy", ok(), ok(), ok(), StatusHealthy, false},
		{"datastore down, completion degraded", failing("conn refused"), ok(), nil, StatusUnhealthy, true},
		{"datastore up, completion degraded", ok(), ok(), nil, StatusDegraded, false},
		{"completion down is capped at degraded", ok(), ok(), failing("401"), StatusDegraded, false},
		{"cache down is capped at degraded", ok(), failing("timeout"), ok(), StatusDegraded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &fakeReporter{}
			agg := NewAggregator(rep, nil, Database(tt.db), Cache(tt.cache), Completion(tt.completion))

			o := agg.CheckAll(context.Background())

			if o.Overall != tt.wantOverall {
				t.Fatalf("overall = %s, want %s", o.Overall, tt.wantOverall)
			}
			if len(o.Services) != 3 {
				t.Fatalf("expected 3 reports, got %d", len(o.Services))
			}
			if got := len(rep.calls) > 0; got != tt.wantReported {
				t.Fatalf("reported = %v, want %v", got, tt.wantReported)
			}
		})
	}
}

func TestCheckAll_Score(t *testing.T) {
	agg := NewAggregator(nil, nil, Database(ok()), Completion(nil))

	o := agg.CheckAll(context.Background())

	if o.Score != 75 {
		t.Fatalf("score = %v, want 75", o.Score)
	}
}

func TestHealthGauge_UsesStatusScale(t *testing.T) {
	prom := observability.NewProm(prometheus.NewRegistry())
	agg := NewAggregator(nil, prom, Database(ok()), Cache(failing("timeout")), Completion(nil))

	agg.CheckAll(context.Background())

	want := map[string]float64{"database": 2, "cache": 0, "completion": 1}
	for service, v := range want {
		if got := testutil.ToFloat64(prom.HealthStatus.WithLabelValues(service)); got != v {
			t.Fatalf("health_status{%s} = %v, want %v", service, got, v)
		}
	}

	agg = NewAggregator(nil, prom, Database(failing("down")))
	agg.Check(context.Background(), "database")

	if got := testutil.ToFloat64(prom.HealthStatus.WithLabelValues("database")); got != 0 {
		t.Fatalf("health_status{database} after failed check = %v, want 0", got)
	}
}

func TestCheckAll_OneFailureDoesNotCancelOthers(t *testing.T) {
	var sawCancel bool
	var mu sync.Mutex
	slowOK := PingFunc(func(ctx context.Context) error {
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		sawCancel = ctx.Err() != nil
		mu.Unlock()
		return ctx.Err()
	})
	agg := NewAggregator(nil, nil, Database(failing("down")), Cache(slowOK))

	o := agg.CheckAll(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if sawCancel {
		t.Fatalf("cache check saw a canceled context")
	}
	for _, r := range o.Services {
		if r.Service == "cache" && r.Status == StatusUnhealthy {
			t.Fatalf("cache should not be unhealthy: %+v", r)
		}
	}
}

func TestCheckAll_RunsConcurrently(t *testing.T) {
	slow := func() Pinger {
		return PingFunc(func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		})
	}
	agg := NewAggregator(nil, nil,
		PingChecker{Service: "a", Target: slow()},
		PingChecker{Service: "b", Target: slow()},
		PingChecker{Service: "c", Target: slow()},
	)

	start := time.Now()
	agg.CheckAll(context.Background())

	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Fatalf("checks look sequential: %s", elapsed)
	}
}

func TestCheck_SingleService(t *testing.T) {
	agg := NewAggregator(nil, nil, Database(failing("down")), Completion(nil))

	r, found := agg.Check(context.Background(), "database")
	if !found || r.Status != StatusUnhealthy || r.Error != "down" {
		t.Fatalf("unexpected report %+v found=%v", r, found)
	}

	r, _ = agg.Check(context.Background(), "completion")
	if r.Status != StatusDegraded || r.Details != "not configured" {
		t.Fatalf("unexpected completion report %+v", r)
	}

	if _, found := agg.Check(context.Background(), "nope"); found {
		t.Fatalf("unknown service should not be found")
	}
}

func TestMonitor_Post(t *testing.T) {
	var got Overall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	agg := NewAggregator(nil, nil, Database(ok()))
	m := NewMonitor(agg, srv.URL, time.Minute, nil)

	if err := m.Post(context.Background(), agg.CheckAll(context.Background())); err != nil {
		t.Fatalf("post: %v", err)
	}
	if got.Overall != StatusHealthy || len(got.Services) != 1 {
		t.Fatalf("unexpected posted body %+v", got)
	}
}
