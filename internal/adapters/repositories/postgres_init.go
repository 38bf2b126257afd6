package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates the verdict store tables.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createVerdictsQuery := `
	CREATE TABLE IF NOT EXISTS verdicts (
		id TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		run_id TEXT NOT NULL DEFAULT '',
		format TEXT NOT NULL,
		feasible BOOLEAN NOT NULL,
		cost_match BOOLEAN NOT NULL,
		verdict JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createFingerprintIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_verdicts_fingerprint
	ON verdicts(fingerprint);
	`

	createRunIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_verdicts_run_id_created_at
	ON verdicts(run_id, created_at DESC);
	`

	statements := []string{
		createVerdictsQuery,
		createFingerprintIndexQuery,
		createRunIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
