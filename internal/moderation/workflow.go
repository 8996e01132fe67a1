package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/domain/content"
	"github.com/geocoder89/learnhub/internal/domain/job"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/jobs"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/geocoder89/learnhub/internal/utils"
	"github.com/microcosm-cc/bluemonday"
)

var (
	ErrUnauthorized = errors.New("sign-in required")
	ErrForbidden    = errors.New("insufficient role")
	ErrEmptyBody    = errors.New("content body is empty after sanitizing")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Repository interface {
	Create(ctx context.Context, item content.Item) (content.Item, error)
	GetByID(ctx context.Context, id string) (content.Item, error)
	// List returns up to f.Limit items ordered by created_at DESC, id DESC,
	// strictly after the (AfterCreatedAt, AfterID) position.
	List(ctx context.Context, f content.ListFilter) ([]content.Item, error)
	// Moderate applies the decision only if the item is still pending and
	// returns content.ErrNotFound otherwise.
	Moderate(ctx context.Context, cmd content.ModerateCommand, to content.Status) (content.Item, error)
	SetSummary(ctx context.Context, id, summary string) error
}

type JobsCreator interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type Workflow struct {
	repo     Repository
	jobs     JobsCreator
	prom     *observability.Prom
	log      *slog.Logger
	bodyHTML *bluemonday.Policy
	plain    *bluemonday.Policy
}

// NewWorkflow accepts nil jobs and prom; side effects are then skipped.
func NewWorkflow(repo Repository, jobsRepo JobsCreator, prom *observability.Prom, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.Default()
	}

	return &Workflow{
		repo:     repo,
		jobs:     jobsRepo,
		prom:     prom,
		log:      log,
		bodyHTML: bluemonday.UGCPolicy(),
		plain:    bluemonday.StrictPolicy(),
	}
}

type Page struct {
	Items      []content.Item `json:"items"`
	Count      int            `json:"count"`
	HasMore    bool           `json:"hasMore"`
	NextCursor *string        `json:"nextCursor"`
}

type ListQuery struct {
	Kind   *content.Kind
	Status *content.Status
	Limit  int
	Cursor string
}

func require(s auth.Session, c role.Capability) error {
	if s.Can(c) {
		return nil
	}
	if s.IsAnonymous() {
		return ErrUnauthorized
	}
	return ErrForbidden
}

// Submit stores a new pending item for the caller.
func (w *Workflow) Submit(ctx context.Context, s auth.Session, req content.SubmitRequest) (content.Item, error) {
	if err := require(s, role.CanCreateContent); err != nil {
		return content.Item{}, err
	}

	req.Title = strings.TrimSpace(w.plain.Sanitize(req.Title))
	req.CourseName = strings.TrimSpace(w.plain.Sanitize(req.CourseName))
	req.Body = strings.TrimSpace(w.bodyHTML.Sanitize(req.Body))

	if req.Body == "" || req.Title == "" {
		return content.Item{}, ErrEmptyBody
	}

	if req.Kind != content.KindReview {
		req.Rating = nil
	}

	item, err := w.repo.Create(ctx, content.NewPending(s.UserID(), req))
	if err != nil {
		return content.Item{}, fmt.Errorf("create content: %w", err)
	}

	w.prom.IncSubmission(string(item.Kind))
	w.log.InfoContext(ctx, "content submitted", "content_id", item.ID, "kind", item.Kind, "author_id", item.AuthorID)

	return item, nil
}

// Moderate approves or rejects a pending item. A second call on the same item
// fails with content.ErrNotFound.
func (w *Workflow) Moderate(ctx context.Context, s auth.Session, id string, d content.Decision, reason string) (content.Item, error) {
	if err := require(s, role.CanModerate); err != nil {
		return content.Item{}, err
	}

	to, err := content.Transition(content.StatusPending, d)
	if err != nil {
		return content.Item{}, err
	}

	reason = strings.TrimSpace(w.plain.Sanitize(reason))

	item, err := w.repo.Moderate(ctx, content.ModerateCommand{
		ID:          id,
		Decision:    d,
		Reason:      reason,
		ModeratorID: s.UserID(),
	}, to)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return content.Item{}, err
		}
		return content.Item{}, fmt.Errorf("moderate content: %w", err)
	}

	w.prom.IncModeration(string(item.Kind), string(d))
	w.log.InfoContext(ctx, "content moderated", "content_id", item.ID, "decision", d, "moderator_id", s.UserID())

	w.afterModeration(ctx, item, d, reason, s.UserID())

	return item, nil
}

// afterModeration queues follow-up work. Failures are logged: the decision is
// already stored and is not rolled back.
func (w *Workflow) afterModeration(ctx context.Context, item content.Item, d content.Decision, reason, moderatorID string) {
	if w.jobs == nil {
		return
	}

	notify := jobs.NotifyModerationPayload{
		ContentID:   item.ID,
		AuthorID:    item.AuthorID,
		Decision:    string(d),
		Reason:      reason,
		ModeratorID: moderatorID,
	}
	if err := w.enqueue(ctx, jobs.JobNotifyModeration, notify, "notify:"+item.ID, &item.AuthorID); err != nil {
		w.log.ErrorContext(ctx, "enqueue moderation notification failed", "content_id", item.ID, "err", err)
	}

	if d == content.DecisionApprove && item.Kind == content.KindReview {
		sum := jobs.SummarizeReviewPayload{ContentID: item.ID}
		if err := w.enqueue(ctx, jobs.JobSummarizeReview, sum, "summarize:"+item.ID, nil); err != nil {
			w.log.ErrorContext(ctx, "enqueue review summary failed", "content_id", item.ID, "err", err)
		}
	}
}

func (w *Workflow) enqueue(ctx context.Context, t jobs.JobType, payload any, key string, userID *string) error {
	if err := jobs.ValidatePayload(t, payload); err != nil {
		return err
	}

	raw, err := jobs.EncodePayload(t, payload)
	if err != nil {
		return err
	}

	_, err = w.jobs.Create(ctx, job.CreateRequest{
		Type:           string(t),
		Payload:        raw,
		MaxAttempts:    5,
		IdempotencyKey: &key,
		UserID:         userID,
	})
	return err
}

// ListPublic returns approved items only, newest first.
func (w *Workflow) ListPublic(ctx context.Context, s auth.Session, q ListQuery) (Page, error) {
	if err := require(s, role.CanView); err != nil {
		return Page{}, err
	}

	approved := content.StatusApproved
	q.Status = &approved

	return w.list(ctx, q, nil)
}

// ListMine returns the caller's own items in every status.
func (w *Workflow) ListMine(ctx context.Context, s auth.Session, q ListQuery) (Page, error) {
	if s.IsAnonymous() {
		return Page{}, ErrUnauthorized
	}
	if err := require(s, role.CanView); err != nil {
		return Page{}, err
	}

	author := s.UserID()
	return w.list(ctx, q, &author)
}

// ListAll is the moderation queue view: every author, every status.
func (w *Workflow) ListAll(ctx context.Context, s auth.Session, q ListQuery) (Page, error) {
	if err := require(s, role.CanModerate); err != nil {
		return Page{}, err
	}
	return w.list(ctx, q, nil)
}

// Get hides non-approved items from everyone but their author and moderators.
func (w *Workflow) Get(ctx context.Context, s auth.Session, id string) (content.Item, error) {
	if err := require(s, role.CanView); err != nil {
		return content.Item{}, err
	}

	item, err := w.repo.GetByID(ctx, id)
	if err != nil {
		return content.Item{}, err
	}

	if item.PublicVisible() || s.Can(role.CanModerate) || (!s.IsAnonymous() && item.AuthorID == s.UserID()) {
		return item, nil
	}
	return content.Item{}, content.ErrNotFound
}

func (w *Workflow) list(ctx context.Context, q ListQuery, authorID *string) (Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	pos := utils.FirstPageDesc()
	if q.Cursor != "" {
		c, err := utils.DecodeCursor(q.Cursor)
		if err != nil {
			return Page{}, err
		}
		pos = c
	}

	items, err := w.repo.List(ctx, content.ListFilter{
		Kind:           q.Kind,
		Status:         q.Status,
		AuthorID:       authorID,
		Limit:          limit + 1,
		AfterCreatedAt: pos.At,
		AfterID:        pos.ID,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list content: %w", err)
	}

	page := Page{Items: items}

	if len(items) > limit {
		page.HasMore = true
		page.Items = items[:limit]
		last := page.Items[len(page.Items)-1]

		cur, err := utils.EncodeCursor(last.CreatedAt, last.ID)
		if err != nil {
			return Page{}, err
		}
		page.NextCursor = &cur
	}

	if page.Items == nil {
		page.Items = []content.Item{}
	}
	page.Count = len(page.Items)
	return page, nil
}
