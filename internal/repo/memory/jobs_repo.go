package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/job"
	"github.com/geocoder89/learnhub/internal/utils"
)

type JobsRepo struct {
	mu    sync.Mutex
	items map[string]job.Job
}

func NewJobsRepo() *JobsRepo {
	return &JobsRepo{items: make(map[string]job.Job)}
}

func (r *JobsRepo) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.IdempotencyKey != nil {
		for _, j := range r.items {
			if j.IdempotencyKey != nil && *j.IdempotencyKey == *req.IdempotencyKey {
				return j, nil
			}
		}
	}

	j := job.New(req)
	r.items[j.ID] = j
	return j, nil
}

func (r *JobsRepo) GetByID(_ context.Context, id string) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok {
		return job.Job{}, job.ErrJobNotFound
	}
	return j, nil
}

// Put stores a job as-is. Test seeding only.
func (r *JobsRepo) Put(j job.Job) {
	r.mu.Lock()
	r.items[j.ID] = j
	r.mu.Unlock()
}

func (r *JobsRepo) ListCursor(_ context.Context, status *job.Status, limit int, after utils.Cursor) (job.Page, error) {
	r.mu.Lock()
	out := make([]job.Job, 0, len(r.items))
	for _, j := range r.items {
		if status != nil && j.Status != *status {
			continue
		}
		if j.UpdatedAt.After(after.At) || (j.UpdatedAt.Equal(after.At) && j.ID >= after.ID) {
			continue
		}
		out = append(out, j)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})

	page := job.Page{Items: out}
	if len(out) > limit {
		page.HasMore = true
		page.Items = out[:limit]
		last := page.Items[len(page.Items)-1]

		cur, err := utils.EncodeCursor(last.UpdatedAt, last.ID)
		if err != nil {
			return job.Page{}, err
		}
		page.NextCursor = &cur
	}
	page.Count = len(page.Items)
	return page, nil
}

func (r *JobsRepo) Retry(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok {
		return job.ErrJobNotFound
	}
	if j.Status != job.StatusFailed {
		return job.ErrJobNotFailed
	}

	now := time.Now().UTC()
	j.Status = job.StatusPending
	j.Attempts = 0
	j.RunAt = now
	j.LastError = nil
	j.UpdatedAt = now
	r.items[id] = j
	return nil
}
