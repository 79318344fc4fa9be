package handoff

import (
	"context"
	"errors"
	"time"
)

// ErrNoTarget is returned when a strategy has never published a target.
// Readers must treat it as "hold current state", never as target zero.
var ErrNoTarget = errors.New("handoff: no target published")

// Target is one published target position. Target is signed: positive
// long, negative short, zero flat.
type Target struct {
	Strategy   string
	Symbol     string
	Target     float64
	ComputedAt time.Time
}

// Stale reports whether the value is older than maxAge at the given
// instant. maxAge <= 0 disables the check.
func (t Target) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(t.ComputedAt) > maxAge
}

// Store is the durable channel between the signal engine (single
// writer) and the reconciliation engine (reader). Writes replace the
// previous value atomically; a write is visible only when Publish
// returns nil.
type Store interface {
	Publish(ctx context.Context, t Target) error
	Latest(ctx context.Context, strategy string) (Target, error)
}
