package jobs

import (
	"errors"
	"testing"
)

func TestEncodeDecode_SummarizeReview(t *testing.T) {
	payload := SummarizeReviewPayload{
		ContentID: "content-123",
		RequestID: "req-1",
	}

	b, err := EncodePayload(JobSummarizeReview, payload)
	if err != nil {
		t.Fatalf("EncodePayload error: %v", err)
	}

	decoded, err := DecodePayload(JobSummarizeReview, b)
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}

	p, ok := decoded.(SummarizeReviewPayload)
	if !ok {
		t.Fatalf("expected SummarizeReviewPayload, got %T", decoded)
	}

	if p.ContentID != payload.ContentID {
		t.Fatalf("expected contentId %s, got %s", payload.ContentID, p.ContentID)
	}
}

func TestEncodePayload_TypeMismatch(t *testing.T) {
	_, err := EncodePayload(JobSummarizeReview, NotifyModerationPayload{
		ContentID: "c1",
		AuthorID:  "u1",
		Decision:  "approve",
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err != ErrPayloadTypeMismatch {
		t.Fatalf("expected ErrPayloadTypeMismatch, got %v", err)
	}
}

func TestDecodePayload_Invalid(t *testing.T) {
	_, err := DecodePayload(JobNotifyModeration, []byte("{not json"))
	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload, got %v", err)
	}

	_, err = DecodePayload(JobType("nope"), []byte("{}"))
	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("expected ErrInvalidJobType, got %v", err)
	}
}

func TestValidatePayload(t *testing.T) {
	if err := ValidatePayload(JobSummarizeReview, SummarizeReviewPayload{ContentID: ""}); err == nil {
		t.Fatalf("expected error for empty content id")
	}

	err := ValidatePayload(JobNotifyModeration, NotifyModerationPayload{ContentID: "c", AuthorID: "a", Decision: "shrug"})
	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("expected ErrInvalidJobPayload for bad decision, got %v", err)
	}

	err = ValidatePayload(JobNotifyModeration, &NotifyModerationPayload{ContentID: "c", AuthorID: "a", Decision: "reject", Reason: "spam"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
