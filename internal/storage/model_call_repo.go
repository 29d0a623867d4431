package storage

import (
	"context"
	"fmt"
)

type ModelCallRecord struct {
	CallID       string
	RunID        string
	SectionID    string
	Stage        string
	Attempt      int
	ProviderName string
	Model        string
	CacheHit     bool
	Status       string
	ErrorKind    string
}

// ModelCallRepo records every gateway interaction, cache hits included, so
// a run's model usage can be audited after the fact.
type ModelCallRepo struct {
	db *DB
}

func NewModelCallRepo(db *DB) *ModelCallRepo {
	return &ModelCallRepo{db: db}
}

func (r *ModelCallRepo) Insert(ctx context.Context, rec ModelCallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO model_calls(call_id, run_id, section_id, stage, attempt, provider_name, model, cache_hit, status, error_kind)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10,''))`,
		rec.CallID, rec.RunID, rec.SectionID, rec.Stage, rec.Attempt, rec.ProviderName, rec.Model, rec.CacheHit, rec.Status, rec.ErrorKind)
	if err != nil {
		return fmt.Errorf("insert model call: %w", err)
	}
	return nil
}

func (r *ModelCallRepo) CountByRun(ctx context.Context, runID string) (calls, hits int, err error) {
	err = r.db.Pool.QueryRow(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE cache_hit)
FROM model_calls
WHERE run_id=$1`, runID).Scan(&calls, &hits)
	if err != nil {
		return 0, 0, fmt.Errorf("count model calls: %w", err)
	}
	return calls, hits, nil
}
