package jobs

import "strings"

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobSummarizeReview:
		var p SummarizeReviewPayload
		switch v := payload.(type) {
		case SummarizeReviewPayload:
			p = v
		case *SummarizeReviewPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.ContentID) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case JobNotifyModeration:
		var p NotifyModerationPayload
		switch v := payload.(type) {
		case NotifyModerationPayload:
			p = v
		case *NotifyModerationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.ContentID) == "" || trim(p.AuthorID) == "" {
			return ErrInvalidJobPayload
		}
		if p.Decision != "approve" && p.Decision != "reject" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
