package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) NotifyModeration(ctx context.Context, _ ModerationNotice) error {
	f.calls++
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})

	for i := 0; i < 2; i++ {
		if err := n.NotifyModeration(context.Background(), ModerationNotice{}); err == nil {
			t.Fatalf("expected inner error")
		}
	}
	if n.State() != "open" {
		t.Fatalf("state = %s, want open", n.State())
	}

	if err := n.NotifyModeration(context.Background(), ModerationNotice{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit should not call inner, calls=%d", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	_ = n.NotifyModeration(context.Background(), ModerationNotice{})
	if n.State() != "open" {
		t.Fatalf("state = %s, want open", n.State())
	}

	now = now.Add(2 * time.Minute)
	inner.err = nil

	if err := n.NotifyModeration(context.Background(), ModerationNotice{}); err != nil {
		t.Fatalf("trial call should pass: %v", err)
	}
	if n.State() != "closed" {
		t.Fatalf("state = %s, want closed", n.State())
	}
}

func TestLogNotifier(t *testing.T) {
	t.Setenv("NOTIFIER_FAIL", "")
	t.Setenv("NOTIFIER_SLEEP_MS", "")

	if err := NewLogNotifier(nil).NotifyModeration(context.Background(), ModerationNotice{ContentID: "c1", Decision: "approve"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
