package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/learnhub/internal/domain/content"
	"github.com/geocoder89/learnhub/internal/domain/job"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/notifications"
)

type ContentStore interface {
	GetByID(ctx context.Context, id string) (content.Item, error)
	SetSummary(ctx context.Context, id, summary string) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, title, body string) (string, error)
}

type Handlers struct {
	contents   ContentStore
	users      UserLookup
	summarizer Summarizer
	notifier   notifications.Notifier
	log        *slog.Logger
}

// NewHandlers accepts a nil summarizer when no completion API is configured.
func NewHandlers(contents ContentStore, users UserLookup, summarizer Summarizer, notifier notifications.Notifier, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{
		contents:   contents,
		users:      users,
		summarizer: summarizer,
		notifier:   notifier,
		log:        log,
	}
}

func (h *Handlers) SummarizeReview(ctx context.Context, j job.Job) error {
	raw, err := DecodePayload(JobSummarizeReview, j.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", job.ErrPermanent, err)
	}
	p := raw.(SummarizeReviewPayload)

	if h.summarizer == nil {
		h.log.WarnContext(ctx, "completion api not configured, skipping summary", "content_id", p.ContentID)
		return nil
	}

	item, err := h.contents.GetByID(ctx, p.ContentID)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return fmt.Errorf("%w: content %s gone", job.ErrPermanent, p.ContentID)
		}
		return err
	}

	if item.Status != content.StatusApproved || item.Kind != content.KindReview {
		h.log.InfoContext(ctx, "content no longer summarizable", "content_id", item.ID, "status", item.Status)
		return nil
	}
	if item.Summary != nil {
		return nil
	}

	summary, err := h.summarizer.Summarize(ctx, item.Title, item.Body)
	if err != nil {
		return fmt.Errorf("summarize review: %w", err)
	}

	return h.contents.SetSummary(ctx, item.ID, summary)
}

func (h *Handlers) NotifyModeration(ctx context.Context, j job.Job) error {
	raw, err := DecodePayload(JobNotifyModeration, j.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", job.ErrPermanent, err)
	}
	p := raw.(NotifyModerationPayload)

	notice := notifications.ModerationNotice{
		ContentID: p.ContentID,
		AuthorID:  p.AuthorID,
		Decision:  p.Decision,
		Reason:    p.Reason,
	}

	if u, err := h.users.GetByID(ctx, p.AuthorID); err == nil {
		notice.Nickname = u.Nickname
	} else if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	if item, err := h.contents.GetByID(ctx, p.ContentID); err == nil {
		notice.Title = item.Title
	} else if !errors.Is(err, content.ErrNotFound) {
		return err
	}

	return h.notifier.NotifyModeration(ctx, notice)
}
