package observability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/learnhub/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// ContextHandler stamps every record with what the context knows: the active
// span, the request, the acting user and the job being run.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	for _, f := range contextFields {
		if v, ok := f.get(ctx); ok {
			r.AddAttrs(slog.String(f.name, v))
		}
	}
	return h.next.Handle(ctx, r)
}

var contextFields = []struct {
	name string
	get  func(context.Context) (string, bool)
}{
	{"request_id", actorctx.RequestIDFrom},
	{"actor_id", actorctx.UserIDFrom},
	{"job_id", actorctx.JobIDFrom},
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
