package transitline

import (
	"context"
	"testing"
)

func TestRunCompletesShortTransit(t *testing.T) {
	sim := NewTransitLineSimulation()
	err := sim.Configure(map[string]interface{}{
		"line_length": 60.0,
		"speed":       3.0,
		"seed":        5,
	})
	if err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestRunHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := NewTransitLineSimulation()
	if err := sim.Run(ctx); err == nil {
		t.Fatal("Expected a canceled context to abort the transit")
	}
}

func TestStopEndsTransit(t *testing.T) {
	sim := NewTransitLineSimulation()
	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	// A stopped simulation should return promptly without finishing the line.
	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run after Stop returned error: %v", err)
	}

	// Stop is idempotent.
	if err := sim.Stop(); err != nil {
		t.Fatalf("Second Stop returned error: %v", err)
	}
}
