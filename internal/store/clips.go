package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const clipColumns = "asset_id, clip_index, path, duration_seconds, frame_rate, width, height, byte_size, created_at, updated_at"

// UpsertClip writes a clip row keyed by (asset_id, clip_index), overwriting
// any stale existing record.
func (s *Store) UpsertClip(ctx context.Context, clip *Clip) error {
	if clip == nil {
		return errors.New("clip is nil")
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO clips (`+clipColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(asset_id, clip_index) DO UPDATE SET
             path = excluded.path,
             duration_seconds = excluded.duration_seconds,
             frame_rate = excluded.frame_rate,
             width = excluded.width,
             height = excluded.height,
             byte_size = excluded.byte_size,
             updated_at = excluded.updated_at`,
		clip.AssetID,
		clip.Index,
		clip.Path,
		nullableFloatPtr(clip.DurationSeconds),
		nullableFloatPtr(clip.FrameRate),
		nullableIntPtr(clip.Width),
		nullableIntPtr(clip.Height),
		nullableInt64Ptr(clip.ByteSize),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("upsert clip: %w", err)
	}
	return nil
}

// GetClip fetches one clip row. Returns nil when not found.
func (s *Store) GetClip(ctx context.Context, assetID string, index int) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE asset_id = ? AND clip_index = ?`, assetID, index)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clip: %w", err)
	}
	return clip, nil
}

// ClipsByAsset returns all clip rows for an asset ordered by index.
func (s *Store) ClipsByAsset(ctx context.Context, assetID string) ([]*Clip, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE asset_id = ? ORDER BY clip_index`, assetID)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

// ClipCount returns the number of clip rows for an asset.
func (s *Store) ClipCount(ctx context.Context, assetID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM clips WHERE asset_id = ?`, assetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count clips: %w", err)
	}
	return count, nil
}

// DeleteClips removes all clip rows for an asset.
func (s *Store) DeleteClips(ctx context.Context, assetID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clips WHERE asset_id = ?`, assetID)
	if err != nil {
		return 0, fmt.Errorf("delete clips: %w", err)
	}
	return res.RowsAffected()
}

func scanClip(scanner interface{ Scan(dest ...any) error }) (*Clip, error) {
	var (
		assetID    string
		index      int
		path       string
		duration   sql.NullFloat64
		frameRate  sql.NullFloat64
		width      sql.NullInt64
		height     sql.NullInt64
		byteSize   sql.NullInt64
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&assetID,
		&index,
		&path,
		&duration,
		&frameRate,
		&width,
		&height,
		&byteSize,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	clip := &Clip{
		AssetID:         assetID,
		Index:           index,
		Path:            path,
		DurationSeconds: floatPtr(duration),
		FrameRate:       floatPtr(frameRate),
		Width:           intPtr(width),
		Height:          intPtr(height),
		ByteSize:        int64Ptr(byteSize),
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		clip.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		clip.UpdatedAt = updated
	}
	return clip, nil
}
