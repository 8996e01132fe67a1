package notifications

import "context"

type ModerationNotice struct {
	ContentID string
	AuthorID  string
	Nickname  string
	Title     string
	Decision  string
	Reason    string
}

type Notifier interface {
	NotifyModeration(ctx context.Context, in ModerationNotice) error
}
