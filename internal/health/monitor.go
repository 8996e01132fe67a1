package health

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Monitor periodically runs CheckAll and posts the result to a monitoring
// ingress endpoint.
type Monitor struct {
	agg      *Aggregator
	url      string
	interval time.Duration
	client   *http.Client
	log      *slog.Logger
}

func NewMonitor(agg *Aggregator, url string, interval time.Duration, log *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		agg:      agg,
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	t := time.NewTicker(m.interval)
	defer t.Stop()

	m.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	o := m.agg.CheckAll(ctx)

	if o.Overall != StatusHealthy {
		m.log.WarnContext(ctx, "health degraded", "overall", o.Overall, "score", o.Score)
	}

	if m.url == "" {
		return
	}
	if err := m.Post(ctx, o); err != nil {
		m.log.ErrorContext(ctx, "post health report failed", "err", err)
	}
}

func (m *Monitor) Post(ctx context.Context, o Overall) error {
	body, err := json.Marshal(o)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("monitoring ingress returned %d", resp.StatusCode)
	}
	return nil
}
