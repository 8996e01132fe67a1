package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{items: make(map[string]user.User)}
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

// Put stores a user as-is. Test seeding only.
func (r *UsersRepo) Put(u user.User) {
	r.mu.Lock()
	r.items[u.ID] = u
	r.mu.Unlock()
}

func (r *UsersRepo) UpsertSocial(_ context.Context, p user.SocialProfile) (user.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.items {
		if u.SocialProvider == p.Provider && u.SocialID == p.SocialID {
			if p.Email != "" {
				u.Email = p.Email
			}
			u.UpdatedAt = time.Now().UTC()
			r.items[id] = u
			return u, false, nil
		}
	}

	now := time.Now().UTC()
	u := user.User{
		ID:             uuid.NewString(),
		SocialProvider: p.Provider,
		SocialID:       p.SocialID,
		Nickname:       p.Nickname,
		Email:          p.Email,
		Role:           role.LoginNotAuth,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.items[u.ID] = u
	return u, true, nil
}

func (r *UsersRepo) List(_ context.Context, f user.ListFilter) ([]user.User, error) {
	r.mu.RLock()
	out := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		out = append(out, u)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *UsersRepo) update(id string, fn func(*user.User)) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u
	return u, nil
}

func (r *UsersRepo) UpdateRole(_ context.Context, id string, newRole role.Role) (user.User, error) {
	return r.update(id, func(u *user.User) { u.Role = newRole })
}

func (r *UsersRepo) SetActive(_ context.Context, id string, active bool) (user.User, error) {
	return r.update(id, func(u *user.User) { u.Active = active })
}

func (r *UsersRepo) UpdateNickname(_ context.Context, id, nickname string) (user.User, error) {
	return r.update(id, func(u *user.User) { u.Nickname = nickname })
}
