package db

import "time"

// Target is the persisted target-position handoff record, one row per
// strategy. Latest value wins; readers detect staleness via ComputedAt.
type Target struct {
	Strategy   string
	Symbol     string
	Target     float64
	ComputedAt time.Time
}

// Trade is one journal row per realization or fill event.
type Trade struct {
	ID         string
	Strategy   string
	Symbol     string
	Side       string
	Qty        float64
	Price      float64
	Realized   float64
	Commission float64
	Reason     string
	CreatedAt  time.Time
}

// ReconReport is one audit row per reconciliation action.
type ReconReport struct {
	ID        int64
	Symbol    string
	Target    float64
	Actual    float64
	Diff      float64
	Action    string
	CreatedAt time.Time
}
