package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UpsertTarget atomically replaces the target row for a strategy.
func (d *Database) UpsertTarget(ctx context.Context, t Target) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO targets (strategy, symbol, target, computed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(strategy) DO UPDATE SET
			symbol = excluded.symbol,
			target = excluded.target,
			computed_at = excluded.computed_at
	`, t.Strategy, t.Symbol, t.Target, t.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert target: %w", err)
	}
	return nil
}

// GetTarget returns the target row for a strategy, or sql.ErrNoRows
// when no value has been written yet.
func (d *Database) GetTarget(ctx context.Context, strategy string) (Target, error) {
	var t Target
	err := d.DB.QueryRowContext(ctx, `
		SELECT strategy, symbol, target, computed_at
		FROM targets WHERE strategy = ?
	`, strategy).Scan(&t.Strategy, &t.Symbol, &t.Target, &t.ComputedAt)
	if err != nil {
		return Target{}, err
	}
	return t, nil
}

// CreateTrade appends a journal row.
func (d *Database) CreateTrade(ctx context.Context, t Trade) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO trades (id, strategy, symbol, side, qty, price, realized, commission, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Strategy, t.Symbol, t.Side, t.Qty, t.Price, t.Realized, t.Commission, t.Reason, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create trade: %w", err)
	}
	return nil
}

// ListTrades returns the most recent journal rows for a strategy.
func (d *Database) ListTrades(ctx context.Context, strategy string, limit int) ([]Trade, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, strategy, symbol, side, qty, price, realized, commission, reason, created_at
		FROM trades WHERE strategy = ?
		ORDER BY created_at DESC LIMIT ?
	`, strategy, limit)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.Strategy, &t.Symbol, &t.Side, &t.Qty, &t.Price,
			&t.Realized, &t.Commission, &t.Reason, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateReconReport appends an audit row for a reconciliation action.
func (d *Database) CreateReconReport(ctx context.Context, r ReconReport) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO recon_reports (symbol, target, actual, diff, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Symbol, r.Target, r.Actual, r.Diff, r.Action, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create recon report: %w", err)
	}
	return nil
}

// IsNoRows reports whether err is the driver's empty-result sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
