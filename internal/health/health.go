// Package health checks the service's dependencies and rolls their reports
// into a single overall status.
package health

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/geocoder89/learnhub/internal/observability"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) Valid() bool {
	switch s {
	case StatusHealthy, StatusDegraded, StatusUnhealthy:
		return true
	default:
		return false
	}
}

func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

func (s Status) score() float64 {
	switch s {
	case StatusHealthy:
		return 100
	case StatusDegraded:
		return 50
	default:
		return 0
	}
}

// gaugeValue is the health_status gauge scale: 2 healthy, 1 degraded, 0 otherwise.
func (s Status) gaugeValue() float64 {
	switch s {
	case StatusHealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

type Report struct {
	Service      string    `json:"service"`
	Status       Status    `json:"status"`
	ResponseTime int64     `json:"responseTime"` // milliseconds
	Timestamp    time.Time `json:"timestamp"`
	Details      string    `json:"details,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type Overall struct {
	Overall   Status    `json:"overall"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
	Services  []Report  `json:"services"`
}

// Checker probes one dependency. Check reports failure through the returned
// Report rather than an error.
type Checker interface {
	Name() string
	Critical() bool
	Check(ctx context.Context) Report
}

type ErrorReporter interface {
	ReportUnhealthy(ctx context.Context, o Overall)
}

// LogReporter writes unhealthy results to the error log.
type LogReporter struct {
	Log *slog.Logger
}

func (r LogReporter) ReportUnhealthy(ctx context.Context, o Overall) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	failing := make([]string, 0, len(o.Services))
	for _, s := range o.Services {
		if s.Status == StatusUnhealthy {
			failing = append(failing, s.Service)
		}
	}

	log.ErrorContext(ctx, "health check unhealthy", "score", o.Score, "failing", failing)
}

type Aggregator struct {
	checkers []Checker
	reporter ErrorReporter
	prom     *observability.Prom
	now      func() time.Time
}

// NewAggregator accepts a nil reporter and prom.
func NewAggregator(reporter ErrorReporter, prom *observability.Prom, checkers ...Checker) *Aggregator {
	return &Aggregator{
		checkers: checkers,
		reporter: reporter,
		prom:     prom,
		now:      time.Now,
	}
}

func (a *Aggregator) Services() []string {
	out := make([]string, 0, len(a.checkers))
	for _, c := range a.checkers {
		out = append(out, c.Name())
	}
	return out
}

// Check runs a single named checker.
func (a *Aggregator) Check(ctx context.Context, service string) (Report, bool) {
	for _, c := range a.checkers {
		if c.Name() == service {
			r := run(ctx, c)
			a.prom.SetHealth(r.Service, r.Status.gaugeValue())
			return r, true
		}
	}
	return Report{}, false
}

// CheckAll runs every checker concurrently and waits for all of them. There is
// no deadline beyond what ctx and each checker's client impose.
func (a *Aggregator) CheckAll(ctx context.Context) Overall {
	reports := make([]Report, len(a.checkers))

	// checkers report failures in their Report, never as an error, so one
	// failing dependency must not cancel the others
	var g errgroup.Group
	for i, c := range a.checkers {
		g.Go(func() error {
			reports[i] = run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	o := Aggregate(a.now().UTC(), a.checkers, reports)

	for _, r := range o.Services {
		a.prom.SetHealth(r.Service, r.Status.gaugeValue())
	}

	if o.Overall == StatusUnhealthy && a.reporter != nil {
		a.reporter.ReportUnhealthy(ctx, o)
	}

	return o
}

// Aggregate applies the roll-up rule: worst status wins, except that a
// non-critical dependency can pull the overall down to degraded at most.
// reports must be index-aligned with checkers.
func Aggregate(at time.Time, checkers []Checker, reports []Report) Overall {
	overall := StatusHealthy
	total := 0.0

	for i, r := range reports {
		effective := r.Status
		if !effective.Valid() {
			effective = StatusUnhealthy
		}
		if effective == StatusUnhealthy && !checkers[i].Critical() {
			effective = StatusDegraded
		}
		if effective.severity() > overall.severity() {
			overall = effective
		}
		total += r.Status.score()
	}

	score := 100.0
	if len(reports) > 0 {
		score = total / float64(len(reports))
	}

	services := append([]Report(nil), reports...)
	sort.SliceStable(services, func(i, j int) bool { return services[i].Service < services[j].Service })

	return Overall{
		Overall:   overall,
		Score:     score,
		Timestamp: at,
		Services:  services,
	}
}

func run(ctx context.Context, c Checker) Report {
	start := time.Now()
	r := c.Check(ctx)

	if r.Service == "" {
		r.Service = c.Name()
	}
	if r.ResponseTime == 0 {
		r.ResponseTime = time.Since(start).Milliseconds()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return r
}
