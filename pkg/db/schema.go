package db

import "fmt"

const schema = `
CREATE TABLE IF NOT EXISTS targets (
	strategy    TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	target      REAL NOT NULL,
	computed_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id          TEXT PRIMARY KEY,
	strategy    TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	side        TEXT NOT NULL,
	qty         REAL NOT NULL,
	price       REAL NOT NULL,
	realized    REAL NOT NULL,
	commission  REAL NOT NULL,
	reason      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trades(strategy, created_at);

CREATE TABLE IF NOT EXISTS recon_reports (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol      TEXT NOT NULL,
	target      REAL NOT NULL,
	actual      REAL NOT NULL,
	diff        REAL NOT NULL,
	action      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
`

func (d *Database) applySchema() error {
	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
