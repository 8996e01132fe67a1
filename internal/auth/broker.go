package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const RoleChangeChannel = "learnhub:role-changes"

type RoleChange struct {
	UserID string    `json:"userId"`
	Role   role.Role `json:"role"`
	Active bool      `json:"active"`
	At     time.Time `json:"at"`
	// process that published it; used to skip our own echoes from redis
	Origin string `json:"origin"`
}

type Observer func(ctx context.Context, ch RoleChange)

// Broker pushes role changes to every active observer. Other API processes
// hear about them through redis pub/sub.
type Broker struct {
	mu        sync.RWMutex
	observers map[int]Observer
	next      int

	rdb    *redis.Client
	origin string
	log    *slog.Logger
}

// NewBroker accepts a nil redis client, in which case delivery stays in-process.
func NewBroker(rdb *redis.Client, log *slog.Logger) *Broker {
	if log == nil {
		log = slog.Default()
	}
	return &Broker{
		observers: make(map[int]Observer),
		rdb:       rdb,
		origin:    uuid.NewString(),
		log:       log,
	}
}

func (b *Broker) Subscribe(o Observer) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.observers[id] = o
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}

func (b *Broker) Publish(ctx context.Context, ch RoleChange) error {
	if ch.At.IsZero() {
		ch.At = time.Now().UTC()
	}
	ch.Origin = b.origin

	b.deliver(ctx, ch)

	if b.rdb == nil {
		return nil
	}

	raw, err := json.Marshal(ch)
	if err != nil {
		return err
	}

	err = b.rdb.Publish(ctx, RoleChangeChannel, raw).Err()
	if err != nil {
		b.log.ErrorContext(ctx, "role change publish failed", "user_id", ch.UserID, "err", err)
	}
	return err
}

// Listen relays role changes published by other processes until ctx is done.
func (b *Broker) Listen(ctx context.Context) error {
	if b.rdb == nil {
		<-ctx.Done()
		return nil
	}

	sub := b.rdb.Subscribe(ctx, RoleChangeChannel)
	defer sub.Close()

	msgs := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.handleMessage(ctx, msg.Payload)
		}
	}
}

func (b *Broker) handleMessage(ctx context.Context, payload string) {
	var ch RoleChange
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		b.log.WarnContext(ctx, "bad role change message", "err", err)
		return
	}
	if ch.Origin == b.origin {
		return
	}
	b.deliver(ctx, ch)
}

func (b *Broker) deliver(ctx context.Context, ch RoleChange) {
	b.mu.RLock()
	observers := make([]Observer, 0, len(b.observers))
	for _, o := range b.observers {
		observers = append(observers, o)
	}
	b.mu.RUnlock()

	for _, o := range observers {
		o(ctx, ch)
	}
}
