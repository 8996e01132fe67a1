package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/redis/go-redis/v9"
)

// MockAuthKey is where test tooling finds the mock session record.
const MockAuthKey = "learnhub:mock-auth"

var ErrNoMockRecord = errors.New("no mock auth record")

type MockUser struct {
	ID       string    `json:"id" binding:"required"`
	Nickname string    `json:"nickname" binding:"required"`
	Role     role.Role `json:"role" binding:"required,role"`
}

type MockRecord struct {
	User            MockUser `json:"user" binding:"required"`
	IsAuthenticated bool     `json:"isAuthenticated"`
}

func (m MockRecord) ToUser() user.User {
	now := time.Now().UTC()
	r, _ := role.Parse(string(m.User.Role))

	return user.User{
		ID:             m.User.ID,
		SocialProvider: user.ProviderMock,
		SocialID:       m.User.ID,
		Nickname:       m.User.Nickname,
		Role:           r,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type MockStore interface {
	Get(ctx context.Context) (MockRecord, error)
	Set(ctx context.Context, rec MockRecord) error
	Clear(ctx context.Context) error
}

type MemoryMockStore struct {
	mu  sync.RWMutex
	rec *MockRecord
}

func NewMemoryMockStore() *MemoryMockStore {
	return &MemoryMockStore{}
}

func (s *MemoryMockStore) Get(_ context.Context) (MockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec == nil {
		return MockRecord{}, ErrNoMockRecord
	}
	return *s.rec, nil
}

func (s *MemoryMockStore) Set(_ context.Context, rec MockRecord) error {
	s.mu.Lock()
	s.rec = &rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryMockStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.rec = nil
	s.mu.Unlock()
	return nil
}

// RedisMockStore keeps the record in redis so e2e tooling can flip it from
// outside the process.
type RedisMockStore struct {
	rdb *redis.Client
	key string
}

func NewRedisMockStore(rdb *redis.Client) *RedisMockStore {
	return &RedisMockStore{rdb: rdb, key: MockAuthKey}
}

func (s *RedisMockStore) Get(ctx context.Context) (MockRecord, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return MockRecord{}, ErrNoMockRecord
		}
		return MockRecord{}, err
	}

	var rec MockRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return MockRecord{}, fmt.Errorf("decode mock auth record: %w", err)
	}
	return rec, nil
}

func (s *RedisMockStore) Set(ctx context.Context, rec MockRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, b, 0).Err()
}

func (s *RedisMockStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
