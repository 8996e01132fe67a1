package content

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		d       Decision
		want    Status
		wantErr error
	}{
		{"approve pending", StatusPending, DecisionApprove, StatusApproved, nil},
		{"reject pending", StatusPending, DecisionReject, StatusRejected, nil},
		{"approve approved", StatusApproved, DecisionApprove, StatusApproved, ErrInvalidTransition},
		{"reject approved", StatusApproved, DecisionReject, StatusApproved, ErrInvalidTransition},
		{"approve rejected", StatusRejected, DecisionApprove, StatusRejected, ErrInvalidTransition},
		{"bad decision", StatusPending, Decision("maybe"), StatusPending, ErrInvalidDecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.d)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewPending_FreshIdentity(t *testing.T) {
	req := SubmitRequest{Kind: KindReview, Title: "Go course", Body: "really good course overall"}

	a := NewPending("u1", req)
	b := NewPending("u1", req)

	if a.Status != StatusPending || b.Status != StatusPending {
		t.Fatalf("new submissions must be pending")
	}
	if a.ID == b.ID {
		t.Fatalf("each submission must get its own id")
	}
	if a.PublicVisible() {
		t.Fatalf("pending items must not be publicly visible")
	}
}
