package observability

import (
	"context"
	"strings"
	"testing"

	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func TestNewResource_CarriesServiceAndEnv(t *testing.T) {
	res, err := newResource(context.Background(), TracerConfig{ServiceName: "learnhub-worker", Environment: "staging"})
	if err != nil {
		t.Fatalf("resource: %v", err)
	}

	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}

	if got[string(semconv.ServiceNameKey)] != "learnhub-worker" {
		t.Fatalf("service.name = %q", got[string(semconv.ServiceNameKey)])
	}
	if got[string(semconv.DeploymentEnvironmentKey)] != "staging" {
		t.Fatalf("deployment.environment = %q", got[string(semconv.DeploymentEnvironmentKey)])
	}
}

func TestNewSampler_Ratio(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{5, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}

	for _, tt := range tests {
		desc := newSampler(tt.ratio).Description()
		if !strings.Contains(desc, tt.want) {
			t.Fatalf("ratio %v: sampler = %q, want it to contain %q", tt.ratio, desc, tt.want)
		}
	}
}
