package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/domain/user"
)

type fakeUsers struct {
	getFn func(ctx context.Context, id string) (user.User, error)
	calls int
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	f.calls++
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(users UserLookup, opts ...ResolverOption) (*Resolver, *Manager) {
	m := NewManager("test-secret", time.Minute, time.Hour)
	return NewResolver(m, users, quietLogger(), opts...), m
}

func TestResolveSession_NoTokenIsAnonymous(t *testing.T) {
	r, _ := newTestResolver(&fakeUsers{})

	s := r.ResolveSession(context.Background(), "")
	if !s.IsAnonymous() || s.Role() != role.NotAccess {
		t.Fatalf("expected anonymous, got %+v", s)
	}
	if s.Caps != role.For(role.NotAccess) {
		t.Fatalf("anonymous caps = %+v", s.Caps)
	}
}

func TestResolveSession_FailsSoft(t *testing.T) {
	users := &fakeUsers{getFn: func(ctx context.Context, id string) (user.User, error) {
		return user.User{}, errors.New("db down")
	}}
	r, m := newTestResolver(users)

	if s := r.ResolveSession(context.Background(), "garbage"); !s.IsAnonymous() {
		t.Fatalf("bad token should be anonymous")
	}

	tok, _ := m.GenerateAccessToken(Identity{UserID: "u1", Role: "ADMIN"})
	if s := r.ResolveSession(context.Background(), tok); !s.IsAnonymous() {
		t.Fatalf("datastore failure should be anonymous, got %+v", s)
	}
}

func TestResolveSession_UsesStoredRoleNotTokenRole(t *testing.T) {
	users := &fakeUsers{getFn: func(ctx context.Context, id string) (user.User, error) {
		return user.User{ID: id, Role: role.BlockedLogin, Active: true}, nil
	}}
	r, m := newTestResolver(users)

	// token still claims ADMIN from before the ban
	tok, _ := m.GenerateAccessToken(Identity{UserID: "u1", Role: "ADMIN"})

	s := r.ResolveSession(context.Background(), tok)
	if s.IsAnonymous() {
		t.Fatalf("expected a user session")
	}
	if !s.Caps.Empty() {
		t.Fatalf("blocked user must have no capabilities, got %+v", s.Caps)
	}
}

func TestResolveSession_CachesUntilRoleChange(t *testing.T) {
	current := role.LoginNotAuth
	users := &fakeUsers{getFn: func(ctx context.Context, id string) (user.User, error) {
		return user.User{ID: id, Role: current, Active: true}, nil
	}}
	r, m := newTestResolver(users)
	broker := NewBroker(nil, quietLogger())
	broker.Subscribe(r.OnRoleChange)

	tok, _ := m.GenerateAccessToken(Identity{UserID: "u1"})
	ctx := context.Background()

	if s := r.ResolveSession(ctx, tok); s.Can(role.CanCreateContent) {
		t.Fatalf("login_not_auth cannot create content")
	}

	current = role.AuthLogin
	if s := r.ResolveSession(ctx, tok); s.Can(role.CanCreateContent) {
		t.Fatalf("cached user should still be served before notification")
	}
	if users.calls != 1 {
		t.Fatalf("expected 1 lookup, got %d", users.calls)
	}

	if err := broker.Publish(ctx, RoleChange{UserID: "u1", Role: role.AuthLogin, Active: true}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if s := r.ResolveSession(ctx, tok); !s.Can(role.CanCreateContent) {
		t.Fatalf("after role change push the session should be re-resolved")
	}
}

func TestResolveSession_MockPreferredOverToken(t *testing.T) {
	users := &fakeUsers{getFn: func(ctx context.Context, id string) (user.User, error) {
		return user.User{ID: id, Role: role.AuthLogin, Active: true}, nil
	}}
	mock := NewMemoryMockStore()
	r, m := newTestResolver(users, WithMockStore(mock))
	ctx := context.Background()

	tok, _ := m.GenerateAccessToken(Identity{UserID: "real"})

	_ = mock.Set(ctx, MockRecord{User: MockUser{ID: "mock-admin", Nickname: "admin", Role: role.Admin}, IsAuthenticated: true})

	s := r.ResolveSession(ctx, tok)
	if s.Source != SourceMock || s.UserID() != "mock-admin" {
		t.Fatalf("mock record should win, got %+v", s)
	}
	if !s.Can(role.CanModerate) || !s.Can(role.CanAccessAdmin) {
		t.Fatalf("mock admin should moderate, got %+v", s.Caps)
	}

	_ = mock.Clear(ctx)

	s = r.ResolveSession(ctx, "")
	if !s.IsAnonymous() || s.Caps != role.For(role.NotAccess) {
		t.Fatalf("cleared mock should revert to NOT_ACCESS, got %+v", s)
	}

	s = r.ResolveSession(ctx, tok)
	if s.Source != SourceToken {
		t.Fatalf("with no mock record the real session applies, got %+v", s)
	}
}

func TestResolveSession_MockUnauthenticated(t *testing.T) {
	mock := NewMemoryMockStore()
	r, _ := newTestResolver(&fakeUsers{}, WithMockStore(mock))
	ctx := context.Background()

	_ = mock.Set(ctx, MockRecord{User: MockUser{ID: "x", Nickname: "x", Role: role.Admin}, IsAuthenticated: false})

	if s := r.ResolveSession(ctx, ""); !s.IsAnonymous() {
		t.Fatalf("unauthenticated mock record should be anonymous")
	}
}

func TestResolveSession_MockIgnoredWithoutFlag(t *testing.T) {
	mock := NewMemoryMockStore()
	_ = mock.Set(context.Background(), MockRecord{User: MockUser{ID: "x", Nickname: "x", Role: role.Admin}, IsAuthenticated: true})

	// resolver built without WithMockStore, as in production
	r, _ := newTestResolver(&fakeUsers{})

	if r.MockEnabled() {
		t.Fatalf("mock should be disabled")
	}
	if s := r.ResolveSession(context.Background(), ""); !s.IsAnonymous() {
		t.Fatalf("production resolver must ignore mock records")
	}
}

func TestBroker_UnsubscribeAndEcho(t *testing.T) {
	b := NewBroker(nil, quietLogger())

	var got []RoleChange
	unsub := b.Subscribe(func(ctx context.Context, ch RoleChange) { got = append(got, ch) })

	_ = b.Publish(context.Background(), RoleChange{UserID: "u1", Role: role.Admin})
	if len(got) != 1 || got[0].Origin == "" || got[0].At.IsZero() {
		t.Fatalf("unexpected deliveries %+v", got)
	}

	// messages from redis that we published ourselves are skipped
	b.handleMessage(context.Background(), `{"userId":"u2","role":"ADMIN","origin":"`+b.origin+`"}`)
	if len(got) != 1 {
		t.Fatalf("own echo should be ignored")
	}

	b.handleMessage(context.Background(), `{"userId":"u3","role":"ADMIN","origin":"other"}`)
	if len(got) != 2 || got[1].UserID != "u3" {
		t.Fatalf("remote change should be delivered, got %+v", got)
	}

	unsub()
	_ = b.Publish(context.Background(), RoleChange{UserID: "u4"})
	if len(got) != 2 {
		t.Fatalf("unsubscribed observer still called")
	}
}
