package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"mpvrp-verify-service/internal/platform/obs"
	"mpvrp-verify-service/internal/ports"
)

// Postgres-backed implementation of the VerdictRepository port.
type PostgresVerdictRepository struct{ DB *sql.DB }

func NewPostgresVerdictRepository(db *sql.DB) *PostgresVerdictRepository {
	return &PostgresVerdictRepository{DB: db}
}

// Insert or replace a verdict.
func (p *PostgresVerdictRepository) SaveVerdict(ctx context.Context, rec ports.VerdictRecord) (err error) {
	defer obs.Time(ctx, "verdict.repo.Save")(&err)

	if p.DB == nil {
		return errors.New("postgres verdict repository: DB is nil")
	}
	if rec.Verdict.ID == "" {
		return errors.New("save verdict: id must not be empty")
	}

	body, err := json.Marshal(rec.Verdict)
	if err != nil {
		return fmt.Errorf("save verdict: encode: %w", err)
	}

	query := `
	INSERT INTO verdicts (id, fingerprint, run_id, format, feasible, cost_match, verdict, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE
	SET verdict = EXCLUDED.verdict,
		feasible = EXCLUDED.feasible,
		cost_match = EXCLUDED.cost_match,
		created_at = EXCLUDED.created_at;
	`
	v := rec.Verdict
	if _, err := p.DB.ExecContext(ctx, query,
		v.ID, rec.Fingerprint, v.RunID, v.Format, v.Feasible, v.CostMatch, body, rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("save verdict id=%s: %w", v.ID, err)
	}
	return nil
}

// Return one stored verdict, or ports.ErrVerdictNotFound.
func (p *PostgresVerdictRepository) GetVerdict(ctx context.Context, id string) (_ *ports.VerdictRecord, err error) {
	defer obs.Time(ctx, "verdict.repo.Get")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres verdict repository: DB is nil")
	}

	query := `
	SELECT
		fingerprint,
		verdict,
		created_at
	FROM verdicts
	WHERE id = $1;
	`

	var rec ports.VerdictRecord
	var body []byte
	err = p.DB.QueryRowContext(ctx, query, id).Scan(&rec.Fingerprint, &body, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrVerdictNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get verdict id=%s: %w", id, err)
	}

	if err := json.Unmarshal(body, &rec.Verdict); err != nil {
		return nil, fmt.Errorf("get verdict id=%s: decode: %w", id, err)
	}
	return &rec, nil
}
