package jobs

type JobType string

const (
	JobSummarizeReview  JobType = "summarize_review"
	JobNotifyModeration JobType = "notify_moderation"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobSummarizeReview, JobNotifyModeration:
		return true
	default:
		return false
	}
}
