package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
)

type RefreshTokensRepo struct {
	mu    sync.Mutex
	items map[string]auth.RefreshToken
}

func NewRefreshTokensRepo() *RefreshTokensRepo {
	return &RefreshTokensRepo{items: make(map[string]auth.RefreshToken)}
}

func (r *RefreshTokensRepo) Create(_ context.Context, t auth.RefreshToken) error {
	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()
	return nil
}

func (r *RefreshTokensRepo) Rotate(_ context.Context, oldID, oldHash string, next auth.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[oldID]
	if !ok {
		return auth.ErrRefreshTokenNotFound
	}
	if cur.TokenHash != oldHash || cur.UserID != next.UserID {
		return auth.ErrRefreshTokenMismatch
	}
	if cur.RevokedAt != nil || time.Now().After(cur.ExpiresAt) {
		return auth.ErrRefreshTokenRevoked
	}

	now := time.Now().UTC()
	cur.RevokedAt = &now
	cur.ReplacedBy = &next.ID
	r.items[oldID] = cur
	r.items[next.ID] = next
	return nil
}

func (r *RefreshTokensRepo) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.items[id]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
		r.items[id] = t
	}
	return nil
}

func (r *RefreshTokensRepo) RevokeAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for id, t := range r.items {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			r.items[id] = t
		}
	}
	return nil
}
