package handoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreNoTarget(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Latest(context.Background(), "missing")
	if !errors.Is(err, ErrNoTarget) {
		t.Fatalf("expected ErrNoTarget, got %v", err)
	}
}

func TestMemoryStoreLatestWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	for i, target := range []float64{1.5, -0.5, 0} {
		err := s.Publish(ctx, Target{
			Strategy:   "alpha",
			Symbol:     "BTCUSDT",
			Target:     target,
			ComputedAt: now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	got, err := s.Latest(ctx, "alpha")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Target != 0 {
		t.Fatalf("target = %v, want last published 0", got.Target)
	}
}

func TestTargetStale(t *testing.T) {
	now := time.Now()
	tgt := Target{ComputedAt: now.Add(-15 * time.Minute)}

	if !tgt.Stale(now, 10*time.Minute) {
		t.Fatal("15m old target should be stale at 10m max age")
	}
	if tgt.Stale(now, time.Hour) {
		t.Fatal("15m old target should be fresh at 1h max age")
	}
	if tgt.Stale(now, 0) {
		t.Fatal("zero max age disables staleness")
	}
}
