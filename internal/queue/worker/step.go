package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/learnhub/internal/actorctx"
	"github.com/geocoder89/learnhub/internal/domain/job"
)

// ProcessOne claims and runs a single job. processed is false when the queue
// was empty.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	// job_id and the submitting user ride on ctx into every log line below
	ctx = actorctx.WithJobID(ctx, j.ID)
	if j.UserID != nil {
		ctx = actorctx.WithUserID(ctx, *j.UserID)
	}

	start := time.Now()
	w.prom.JobStarted()
	err = w.execute(ctx, j)
	w.prom.JobFinished()

	if err != nil {
		result := w.handleFailure(ctx, j, err)
		w.prom.ObserveJob(j.Type, result, time.Since(start))
		return true, nil
	}

	if err := w.repo.MarkDone(ctx, j.ID); err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.prom.ObserveJob(j.Type, "done", time.Since(start))
	w.log.InfoContext(ctx, "job done", "job_type", j.Type, "attempt", j.Attempts+1)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) (err error) {
	h, ok := w.handlers[j.Type]
	if !ok {
		return fmt.Errorf("%w: no handler for job type %q", job.ErrPermanent, j.Type)
	}

	runCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return h(runCtx, j)
}

// handleFailure either reschedules with backoff or marks the job failed for
// good. It returns the metrics result label.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, jobErr error) string {
	msg := jobErr.Error()

	if errors.Is(jobErr, job.ErrPermanent) || j.Attempts+1 >= j.MaxAttempts {
		if err := w.repo.MarkFailed(ctx, j.ID, msg); err != nil {
			w.log.ErrorContext(ctx, "mark failed error", "err", err)
		}
		w.log.ErrorContext(ctx, "job failed", "job_type", j.Type, "attempts", j.Attempts+1, "err", msg)
		return "failed"
	}

	runAt := time.Now().UTC().Add(ExponentialBackoff(j.Attempts))
	if err := w.repo.Reschedule(ctx, j.ID, runAt, msg); err != nil {
		w.log.ErrorContext(ctx, "reschedule error", "err", err)
	}
	w.log.WarnContext(ctx, "job retry scheduled", "job_type", j.Type, "run_at", runAt, "err", msg)
	return "retry"
}
