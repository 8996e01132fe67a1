package health

import (
	"context"
	"errors"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ErrNotConfigured is returned by optional dependencies that were never set up.
var ErrNotConfigured = errors.New("not configured")

// PingChecker reports healthy when Ping succeeds. Responses slower than
// SlowAfter are reported as degraded.
type PingChecker struct {
	Service    string
	IsCritical bool
	Target     Pinger
	SlowAfter  time.Duration
}

func (c PingChecker) Name() string { return c.Service }
func (c PingChecker) Critical() bool { return c.IsCritical }

func (c PingChecker) Check(ctx context.Context) Report {
	start := time.Now()
	r := Report{Service: c.Service}

	var err error
	if c.Target == nil {
		err = ErrNotConfigured
	} else {
		err = c.Target.Ping(ctx)
	}

	elapsed := time.Since(start)
	r.ResponseTime = elapsed.Milliseconds()
	r.Timestamp = time.Now().UTC()

	switch {
	case errors.Is(err, ErrNotConfigured):
		r.Status = StatusDegraded
		r.Details = ErrNotConfigured.Error()
	case err != nil:
		r.Status = StatusUnhealthy
		r.Error = err.Error()
	case c.SlowAfter > 0 && elapsed > c.SlowAfter:
		r.Status = StatusDegraded
		r.Details = "slow response"
	default:
		r.Status = StatusHealthy
	}

	return r
}

func Database(p Pinger) Checker {
	return PingChecker{Service: "database", IsCritical: true, Target: p, SlowAfter: time.Second}
}

func Cache(p Pinger) Checker {
	return PingChecker{Service: "cache", Target: p, SlowAfter: 500 * time.Millisecond}
}

// Completion takes a nil Pinger when no API key is configured.
func Completion(p Pinger) Checker {
	return PingChecker{Service: "completion", Target: p, SlowAfter: 3 * time.Second}
}
