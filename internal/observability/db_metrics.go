package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/content"
	"github.com/geocoder89/learnhub/internal/domain/job"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Query outcomes recorded in the status label of db_query_duration_seconds.
const (
	DBOutcomeOK       = "ok"
	DBOutcomeNotFound = "not_found"
	DBOutcomeRejected = "rejected"
	DBOutcomeError    = "error"
)

// Errors a repo returns as a normal answer. An empty job queue, a second
// moderation of the same item and a reused refresh token all land here.
var expectedOutcomes = []struct {
	err     error
	outcome string
}{
	{pgx.ErrNoRows, DBOutcomeNotFound},
	{content.ErrNotFound, DBOutcomeNotFound},
	{job.ErrJobNotFound, DBOutcomeNotFound},
	{user.ErrNotFound, DBOutcomeNotFound},
	{auth.ErrRefreshTokenNotFound, DBOutcomeNotFound},
	{auth.ErrRefreshTokenRevoked, DBOutcomeRejected},
	{auth.ErrRefreshTokenMismatch, DBOutcomeRejected},
}

// ObserveDB times fn under a logical op name. Only real failures count
// towards db_errors_total. A nil Prom just runs fn.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	outcome := DBOutcome(err)
	if outcome == DBOutcomeError {
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	return err
}

// DBOutcome maps a repo error to its status label.
func DBOutcome(err error) string {
	if err == nil {
		return DBOutcomeOK
	}
	for _, e := range expectedOutcomes {
		if errors.Is(err, e.err) {
			return e.outcome
		}
	}
	return DBOutcomeError
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "23503":
			return "foreign_key_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	var connErr *pgconn.ConnectError
	switch {
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &connErr), pgconn.SafeToRetry(err):
		return "connection"
	case errors.Is(err, pgx.ErrTxClosed):
		return "tx_closed"
	case strings.Contains(strings.ToLower(err.Error()), "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
