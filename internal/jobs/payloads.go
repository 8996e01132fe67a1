package jobs

// SummarizeReviewPayload asks the worker to produce an AI summary of an approved review.
// Keep payload minimal and ID-based; worker will load details from DB.
type SummarizeReviewPayload struct {
	ContentID string `json:"contentId"`
	RequestID string `json:"requestId,omitempty"`
}

// NotifyModerationPayload tells an author what happened to their submission.
type NotifyModerationPayload struct {
	ContentID   string `json:"contentId"`
	AuthorID    string `json:"authorId"`
	Decision    string `json:"decision"`
	Reason      string `json:"reason,omitempty"`
	ModeratorID string `json:"moderatorId,omitempty"`
}
