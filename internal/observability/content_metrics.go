package observability

import "time"

// Nil-safe helpers so services can run without a registry (tests, tools).

func (p *Prom) IncSubmission(kind string) {
	if p == nil {
		return
	}
	p.SubmissionsTotal.WithLabelValues(kind).Inc()
}

func (p *Prom) IncModeration(kind, decision string) {
	if p == nil {
		return
	}
	p.ModerationsTotal.WithLabelValues(kind, decision).Inc()
}

// SetHealth records a dependency status as 2 (healthy), 1 (degraded) or 0.
func (p *Prom) SetHealth(service string, value float64) {
	if p == nil {
		return
	}
	p.HealthStatus.WithLabelValues(service).Set(value)
}

func (p *Prom) IncMonitoringReport(overall string) {
	if p == nil {
		return
	}
	p.MonitoringReports.WithLabelValues(overall).Inc()
}

func (p *Prom) ObserveJob(jobType, result string, d time.Duration) {
	if p == nil {
		return
	}
	p.JobResults.WithLabelValues(jobType, result).Inc()
	p.JobDuration.WithLabelValues(jobType, result).Observe(d.Seconds())
}

func (p *Prom) JobStarted() {
	if p == nil {
		return
	}
	p.JobsInFlight.Inc()
}

func (p *Prom) JobFinished() {
	if p == nil {
		return
	}
	p.JobsInFlight.Dec()
}
