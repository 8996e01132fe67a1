package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/learnhub/internal/cache"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/domain/user"
)

type Source string

const (
	SourceAnonymous Source = "anonymous"
	SourceToken     Source = "token"
	SourceMock      Source = "mock"
)

// Session is who is calling, resolved once per request and passed along
// explicitly.
type Session struct {
	User   *user.User        `json:"user,omitempty"`
	Source Source            `json:"source"`
	Caps   role.Capabilities `json:"capabilities"`
}

func Anonymous() Session {
	return Session{Source: SourceAnonymous, Caps: role.For(role.NotAccess)}
}

func (s Session) IsAnonymous() bool {
	return s.User == nil
}

func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Role is the effective role. Anonymous callers are NOT_ACCESS.
func (s Session) Role() role.Role {
	if s.User == nil {
		return role.NotAccess
	}
	return s.User.Role
}

func (s Session) Can(c role.Capability) bool {
	return s.Caps.Has(c)
}

// DeriveCapabilities applies the role model to a user.
func DeriveCapabilities(u *user.User) role.Capabilities {
	if u == nil {
		return role.For(role.NotAccess)
	}
	return role.ForSubject(u)
}

func sessionFor(u *user.User, src Source) Session {
	return Session{User: u, Source: src, Caps: DeriveCapabilities(u)}
}

type SessionVerifier interface {
	VerifySession(token string) (*Claims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Resolver struct {
	verifier SessionVerifier
	users    UserLookup
	mock     MockStore
	log      *slog.Logger
	cache    *cache.Cache[user.User]
}

type ResolverOption func(*Resolver)

// WithMockStore turns on the mock-auth hook. Only wire this when the mock-auth
// flag was set at startup.
func WithMockStore(m MockStore) ResolverOption {
	return func(r *Resolver) { r.mock = m }
}

func WithUserCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) { r.cache = cache.New[user.User](ttl) }
}

func NewResolver(verifier SessionVerifier, users UserLookup, log *slog.Logger, opts ...ResolverOption) *Resolver {
	if log == nil {
		log = slog.Default()
	}

	r := &Resolver{
		verifier: verifier,
		users:    users,
		log:      log,
		cache:    cache.New[user.User](30 * time.Second),
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) MockEnabled() bool {
	return r.mock != nil
}

// ResolveSession never fails: anything that goes wrong yields the anonymous
// session and a log line.
func (r *Resolver) ResolveSession(ctx context.Context, token string) Session {
	if r.mock != nil {
		s, ok := r.resolveMock(ctx)
		if ok {
			return s
		}
	}

	if token == "" {
		return Anonymous()
	}

	claims, err := r.verifier.VerifySession(token)
	if err != nil {
		r.log.DebugContext(ctx, "session token rejected", "err", err)
		return Anonymous()
	}

	u, err := r.loadUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			r.log.WarnContext(ctx, "session for unknown user", "user_id", claims.UserID)
		} else {
			r.log.ErrorContext(ctx, "session user lookup failed", "user_id", claims.UserID, "err", err)
		}
		return Anonymous()
	}

	return sessionFor(&u, SourceToken)
}

func (r *Resolver) resolveMock(ctx context.Context) (Session, bool) {
	rec, err := r.mock.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoMockRecord) {
			r.log.WarnContext(ctx, "mock auth record unreadable", "err", err)
			return Anonymous(), true
		}
		return Session{}, false
	}

	if !rec.IsAuthenticated {
		return Anonymous(), true
	}

	u := rec.ToUser()
	return sessionFor(&u, SourceMock), true
}

func (r *Resolver) loadUser(ctx context.Context, id string) (user.User, error) {
	if u, ok := r.cache.Get(id); ok {
		return u, nil
	}

	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	r.cache.Set(id, u)
	return u, nil
}

// Invalidate drops a cached user so the next request re-reads it.
func (r *Resolver) Invalidate(userID string) {
	r.cache.Delete(userID)
}

// OnRoleChange is the resolver's broker subscription.
func (r *Resolver) OnRoleChange(_ context.Context, ch RoleChange) {
	r.Invalidate(ch.UserID)
	r.log.Info("role change observed", "user_id", ch.UserID, "role", ch.Role)
}
