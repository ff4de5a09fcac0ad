package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const jobColumns = "asset_id, state, last_error_text, last_exit_code, updated_at"

// JobStateFor returns the job record for an asset, or nil when the asset has
// never been processed (callers treat nil as not started).
func (s *Store) JobStateFor(ctx context.Context, assetID string) (*JobState, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM job_states WHERE asset_id = ?`, assetID)
	job, err := scanJobState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job state: %w", err)
	}
	return job, nil
}

// SetJobState upserts the job record for an asset, overwriting the previous
// state, error text, and exit code.
func (s *Store) SetJobState(ctx context.Context, assetID string, state JobStateValue, errorText string, exitCode *int) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO job_states (`+jobColumns+`)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(asset_id) DO UPDATE SET
             state = excluded.state,
             last_error_text = excluded.last_error_text,
             last_exit_code = excluded.last_exit_code,
             updated_at = excluded.updated_at`,
		assetID,
		state,
		nullableString(errorText),
		nullableIntPtr(exitCode),
		timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("set job state: %w", err)
	}
	return nil
}

// TouchJobState refreshes the heartbeat timestamp without changing the
// logical state, so stale-job recovery does not reap a slow but live run.
func (s *Store) TouchJobState(ctx context.Context, assetID string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE job_states SET updated_at = ? WHERE asset_id = ?`,
		timestamp(time.Now()),
		assetID,
	)
	if err != nil {
		return fmt.Errorf("touch job state: %w", err)
	}
	return nil
}

// GeneratingJobs returns all job records currently claiming to be running.
func (s *Store) GeneratingJobs(ctx context.Context) ([]*JobState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM job_states WHERE state = ?`, JobGenerating)
	if err != nil {
		return nil, fmt.Errorf("list generating jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*JobState
	for rows.Next() {
		job, err := scanJobState(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// FailStaleJobs force-fails generating jobs whose heartbeat is older than
// cutoff and returns how many were reaped.
func (s *Store) FailStaleJobs(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE job_states
         SET state = ?, last_error_text = ?, updated_at = ?
         WHERE state = ? AND updated_at < ?`,
		JobFailed,
		message,
		timestamp(time.Now()),
		JobGenerating,
		timestamp(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("fail stale jobs: %w", err)
	}
	return res.RowsAffected()
}

func scanJobState(scanner interface{ Scan(dest ...any) error }) (*JobState, error) {
	var (
		assetID    string
		stateStr   string
		errorText  sql.NullString
		exitCode   sql.NullInt64
		updatedRaw string
	)

	if err := scanner.Scan(&assetID, &stateStr, &errorText, &exitCode, &updatedRaw); err != nil {
		return nil, err
	}

	job := &JobState{
		AssetID:       assetID,
		State:         JobStateValue(stateStr),
		LastErrorText: errorText.String,
		LastExitCode:  intPtr(exitCode),
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}
