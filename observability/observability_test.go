package observability_test

import (
	"testing"

	"github.com/freemocap/skellysubs/observability"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := observability.DefaultTracerConfig("skellysubs")
	if cfg.ServiceName != "skellysubs" {
		t.Fatalf("expected service name skellysubs, got %q", cfg.ServiceName)
	}
	if cfg.Endpoint == "" {
		t.Fatal("expected default endpoint")
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("expected full sampling by default, got %v", cfg.SampleRate)
	}
}

func TestServiceHealthAggregation(t *testing.T) {
	sh := observability.NewServiceHealth("skellysubs", "1.2.3")
	if sh.Status != observability.HealthStatusUp {
		t.Fatalf("fresh service should be up, got %s", sh.Status)
	}

	sh.AddComponent(observability.Health{Name: "ffmpeg", Status: observability.HealthStatusUp})
	if sh.Status != observability.HealthStatusUp {
		t.Fatalf("up component should not degrade, got %s", sh.Status)
	}

	sh.AddComponent(observability.Health{Name: "transcription", Status: observability.HealthStatusDegraded})
	if sh.Status != observability.HealthStatusDegraded {
		t.Fatalf("degraded component should degrade service, got %s", sh.Status)
	}

	sh.AddComponent(observability.Health{Name: "translation", Status: observability.HealthStatusDown})
	if sh.Status != observability.HealthStatusDown {
		t.Fatalf("down component should take service down, got %s", sh.Status)
	}

	// A later degraded component must not upgrade a down service.
	sh.AddComponent(observability.Health{Name: "session", Status: observability.HealthStatusDegraded})
	if sh.Status != observability.HealthStatusDown {
		t.Fatalf("down is terminal, got %s", sh.Status)
	}

	if len(sh.Components) != 4 {
		t.Fatalf("expected 4 components, got %d", len(sh.Components))
	}
}
