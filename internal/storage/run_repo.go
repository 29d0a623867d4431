package storage

import (
	"context"
	"fmt"

	"profilemeister/internal/profile"
)

type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) CreateRun(ctx context.Context, runID, companyName, inputDir string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO profile_runs (run_id, company_name, status, input_dir)
VALUES ($1, $2, 'pending', NULLIF($3,''))`, runID, companyName, inputDir)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *RunRepo) UpdateRunStatus(ctx context.Context, runID, status string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE profile_runs SET status=$2, updated_at=NOW() WHERE run_id=$1`, runID, status)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

func (r *RunRepo) SetRunBundle(ctx context.Context, runID, companyName, bundleFP string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE profile_runs SET company_name=$2, bundle_fp=$3, updated_at=NOW() WHERE run_id=$1`,
		runID, companyName, bundleFP)
	if err != nil {
		return fmt.Errorf("set run bundle: %w", err)
	}
	return nil
}

func (r *RunRepo) SetRunReport(ctx context.Context, runID, status, reportPath string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE profile_runs SET status=$2, report_path=NULLIF($3,''), updated_at=NOW() WHERE run_id=$1`,
		runID, status, reportPath)
	if err != nil {
		return fmt.Errorf("set run report: %w", err)
	}
	return nil
}

func (r *RunRepo) GetRun(ctx context.Context, runID string) (profile.Run, error) {
	var run profile.Run
	err := r.db.Pool.QueryRow(ctx, `
SELECT run_id, company_name, status, COALESCE(input_dir,''), COALESCE(bundle_fp,''), COALESCE(report_path,''), created_at, updated_at
FROM profile_runs
WHERE run_id=$1`, runID).
		Scan(&run.RunID, &run.CompanyName, &run.Status, &run.InputDir, &run.BundleFP, &run.ReportPath, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return profile.Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (r *RunRepo) UpsertSection(ctx context.Context, s profile.SectionStatus) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO profile_sections (run_id, section_id, state, stage, attempts, fail_reason)
VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''))
ON CONFLICT (run_id, section_id)
DO UPDATE SET
  state = EXCLUDED.state,
  stage = EXCLUDED.stage,
  attempts = EXCLUDED.attempts,
  fail_reason = EXCLUDED.fail_reason,
  updated_at = NOW()`,
		s.RunID, s.SectionID, s.State, string(s.Stage), s.Attempts, s.FailReason)
	if err != nil {
		return fmt.Errorf("upsert section: %w", err)
	}
	return nil
}

func (r *RunRepo) ListSections(ctx context.Context, runID string) ([]profile.SectionStatus, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT run_id, section_id, state, COALESCE(stage,''), attempts, COALESCE(fail_reason,''), updated_at
FROM profile_sections
WHERE run_id=$1
ORDER BY section_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	out := make([]profile.SectionStatus, 0)
	for rows.Next() {
		var s profile.SectionStatus
		var stage string
		if err := rows.Scan(&s.RunID, &s.SectionID, &s.State, &stage, &s.Attempts, &s.FailReason, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		s.Stage = profile.Stage(stage)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return out, nil
}

func (r *RunRepo) ListFailedSections(ctx context.Context, runID string) ([]profile.SectionStatus, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT run_id, section_id, state, COALESCE(stage,''), attempts, COALESCE(fail_reason,''), updated_at
FROM profile_sections
WHERE run_id=$1 AND state='failed'
ORDER BY section_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list failed sections: %w", err)
	}
	defer rows.Close()
	out := make([]profile.SectionStatus, 0)
	for rows.Next() {
		var s profile.SectionStatus
		var stage string
		if err := rows.Scan(&s.RunID, &s.SectionID, &s.State, &stage, &s.Attempts, &s.FailReason, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan failed section: %w", err)
		}
		s.Stage = profile.Stage(stage)
		out = append(out, s)
	}
	return out, rows.Err()
}
