package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/geocoder89/learnhub/internal/actorctx"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewLoggerTo_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "dev")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello", "k", "v")
	span.End()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v, body=%s", err, buf.String())
	}

	if line["trace_id"] == nil || line["span_id"] == nil {
		t.Fatalf("expected trace ids in %v", line)
	}
	if line["msg"] != "hello" {
		t.Fatalf("msg = %v", line["msg"])
	}
}

func TestNewLoggerTo_ProdSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be dropped in prod, got %s", buf.String())
	}
}

func TestNewLoggerTo_AddsActor(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "dev")

	log.InfoContext(actorctx.WithUserID(context.Background(), "u-42"), "acted")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if line["actor_id"] != "u-42" {
		t.Fatalf("actor_id = %v", line["actor_id"])
	}
}

func TestNewLoggerTo_AddsRequestAndJob(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	ctx := actorctx.WithRequestID(context.Background(), "req-7")
	ctx = actorctx.WithJobID(ctx, "job-9")
	log.InfoContext(ctx, "ran")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if line["request_id"] != "req-7" || line["job_id"] != "job-9" || line["env"] != "prod" {
		t.Fatalf("unexpected fields: %v", line)
	}
	if _, ok := line["actor_id"]; ok {
		t.Fatalf("no actor on this context: %v", line)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		env, override string
		want          slog.Level
	}{
		{"dev", "", slog.LevelDebug},
		{"prod", "", slog.LevelInfo},
		{"prod", "debug", slog.LevelDebug},
		{"dev", "WARN", slog.LevelWarn},
		{"prod", "loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := levelFor(tt.env, tt.override); got != tt.want {
			t.Fatalf("levelFor(%q, %q) = %v, want %v", tt.env, tt.override, got, tt.want)
		}
	}
}
