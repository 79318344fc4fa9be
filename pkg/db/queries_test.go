package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *Database {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestTargetUpsert(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if _, err := d.GetTarget(ctx, "alpha"); !IsNoRows(err) {
		t.Fatalf("empty table must report no rows, got %v", err)
	}

	first := Target{Strategy: "alpha", Symbol: "BTCUSDT", Target: 1.5, ComputedAt: now}
	if err := d.UpsertTarget(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second := Target{Strategy: "alpha", Symbol: "BTCUSDT", Target: -0.25, ComputedAt: now.Add(time.Minute)}
	if err := d.UpsertTarget(ctx, second); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}

	got, err := d.GetTarget(ctx, "alpha")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Target != -0.25 {
		t.Fatalf("target = %v, want last write", got.Target)
	}
	if !got.ComputedAt.Equal(second.ComputedAt) {
		t.Fatalf("computed_at = %v, want %v", got.ComputedAt, second.ComputedAt)
	}
}

func TestTradesJournal(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i, realized := range []float64{-6, 2, 9} {
		err := d.CreateTrade(ctx, Trade{
			ID:        "t" + string(rune('a'+i)),
			Strategy:  "alpha",
			Symbol:    "BTCUSDT",
			Side:      "LONG",
			Qty:       1,
			Price:     100,
			Realized:  realized,
			Reason:    "STOP_LOSS",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create trade: %v", err)
		}
	}

	trades, err := d.ListTrades(ctx, "alpha", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("len = %d, want limit 2", len(trades))
	}
	if trades[0].Realized != 9 {
		t.Fatalf("newest first: %+v", trades[0])
	}

	other, err := d.ListTrades(ctx, "beta", 10)
	if err != nil || len(other) != 0 {
		t.Fatalf("strategy filter leaked: %v %v", other, err)
	}
}

func TestReconReports(t *testing.T) {
	d := testDB(t)
	err := d.CreateReconReport(context.Background(), ReconReport{
		Symbol: "BTCUSDT", Target: 1, Actual: 0.4, Diff: 0.6,
		Action: "adjusted", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}
}
