package ai

import (
	"context"
	"testing"
	"time"
)

func TestGateSpacesCalls(t *testing.T) {
	const interval = 20 * time.Millisecond
	gate := NewGate(interval)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := gate.Wait(ctx); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	}

	// Three calls means two enforced gaps.
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Errorf("three calls took %v, want at least %v", elapsed, 2*interval)
	}
}

func TestGateCancellation(t *testing.T) {
	gate := NewGate(time.Minute)
	if err := gate.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := gate.Wait(ctx); err == nil {
		t.Error("expected a context error while waiting out the interval")
	}
}

func TestGateZeroInterval(t *testing.T) {
	gate := NewGate(0)
	for i := 0; i < 5; i++ {
		if err := gate.Wait(context.Background()); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	}
}
