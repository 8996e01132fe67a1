// Package actorctx carries who and what a unit of work belongs to on a
// context.Context, so code below the HTTP layer (loggers, jobs) can attribute
// it without a session.
package actorctx

import "context"

type key int

const (
	userKey key = iota
	requestKey
	jobKey
)

func with(ctx context.Context, k key, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

func from(ctx context.Context, k key) (string, bool) {
	v, ok := ctx.Value(k).(string)
	return v, ok && v != ""
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return with(ctx, userKey, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) { return from(ctx, userKey) }

func WithRequestID(ctx context.Context, id string) context.Context {
	return with(ctx, requestKey, id)
}

func RequestIDFrom(ctx context.Context) (string, bool) { return from(ctx, requestKey) }

// WithJobID marks work done on behalf of a queued job.
func WithJobID(ctx context.Context, id string) context.Context {
	return with(ctx, jobKey, id)
}

func JobIDFrom(ctx context.Context) (string, bool) { return from(ctx, jobKey) }
