package handoff

import (
	"context"
	"fmt"

	"perp-exec/pkg/db"
)

// SQLiteStore persists targets in the shared database. The upsert makes
// publication atomic; readers either see the previous complete value or
// the new one.
type SQLiteStore struct {
	db *db.Database
}

func NewSQLiteStore(database *db.Database) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) Publish(ctx context.Context, t Target) error {
	err := s.db.UpsertTarget(ctx, db.Target{
		Strategy:   t.Strategy,
		Symbol:     t.Symbol,
		Target:     t.Target,
		ComputedAt: t.ComputedAt,
	})
	if err != nil {
		return fmt.Errorf("publish target: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Latest(ctx context.Context, strategy string) (Target, error) {
	row, err := s.db.GetTarget(ctx, strategy)
	if err != nil {
		if db.IsNoRows(err) {
			return Target{}, ErrNoTarget
		}
		return Target{}, fmt.Errorf("read target: %w", err)
	}
	return Target{
		Strategy:   row.Strategy,
		Symbol:     row.Symbol,
		Target:     row.Target,
		ComputedAt: row.ComputedAt,
	}, nil
}

var _ Store = (*SQLiteStore)(nil)
