package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/content"
)

type ContentsRepo struct {
	mu    sync.RWMutex
	items map[string]content.Item
}

func NewContentsRepo() *ContentsRepo {
	return &ContentsRepo{
		items: make(map[string]content.Item),
	}
}

func (r *ContentsRepo) Create(_ context.Context, item content.Item) (content.Item, error) {
	r.mu.Lock()
	r.items[item.ID] = item
	r.mu.Unlock()

	return item, nil
}

func (r *ContentsRepo) GetByID(_ context.Context, id string) (content.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return content.Item{}, content.ErrNotFound
	}
	return item, nil
}

func (r *ContentsRepo) List(_ context.Context, f content.ListFilter) ([]content.Item, error) {
	r.mu.RLock()
	out := make([]content.Item, 0, len(r.items))
	for _, it := range r.items {
		if f.Kind != nil && it.Kind != *f.Kind {
			continue
		}
		if f.Status != nil && it.Status != *f.Status {
			continue
		}
		if f.AuthorID != nil && it.AuthorID != *f.AuthorID {
			continue
		}
		if !f.AfterCreatedAt.IsZero() && !before(it, f.AfterCreatedAt, f.AfterID) {
			continue
		}
		out = append(out, it)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// before reports (it.CreatedAt, it.ID) < (at, id), the DESC keyset condition.
func before(it content.Item, at time.Time, id string) bool {
	if it.CreatedAt.Before(at) {
		return true
	}
	return it.CreatedAt.Equal(at) && it.ID < id
}

func (r *ContentsRepo) Moderate(_ context.Context, cmd content.ModerateCommand, to content.Status) (content.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[cmd.ID]
	if !ok || it.Status != content.StatusPending {
		return content.Item{}, content.ErrNotFound
	}

	now := time.Now().UTC()
	moderator := cmd.ModeratorID

	it.Status = to
	it.ModeratedBy = &moderator
	it.ModeratedAt = &now
	it.UpdatedAt = now
	if to == content.StatusRejected && cmd.Reason != "" {
		reason := cmd.Reason
		it.RejectReason = &reason
	}

	r.items[it.ID] = it
	return it, nil
}

func (r *ContentsRepo) SetSummary(_ context.Context, id, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok {
		return content.ErrNotFound
	}
	it.Summary = &summary
	it.UpdatedAt = time.Now().UTC()
	r.items[id] = it
	return nil
}
