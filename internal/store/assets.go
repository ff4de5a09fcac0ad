package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clipforge/internal/media"
	"clipforge/internal/services"
)

const assetColumns = "asset_id, title, source_path, status, duration_seconds, frame_rate, width, height, aspect_ratio, rotation_raw, codec_name, container_format, byte_size, error_message, created_at, updated_at"

// InsertAsset persists a newly imported asset.
func (s *Store) InsertAsset(ctx context.Context, asset *Asset) error {
	if asset == nil {
		return errors.New("asset is nil")
	}
	now := time.Now().UTC()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	if asset.Status == "" {
		asset.Status = StatusPending
	}

	meta := asset.Metadata
	if meta == nil {
		meta = &media.Metadata{}
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO media_assets (`+assetColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID,
		asset.Title,
		asset.SourcePath,
		asset.Status,
		nullableFloatPtr(meta.DurationSeconds),
		nullableFloatPtr(meta.FrameRate),
		nullableIntPtr(meta.Width),
		nullableIntPtr(meta.Height),
		nullableStringPtr(meta.AspectRatio),
		nullableStringPtr(meta.RotationRaw),
		nullableStringPtr(meta.CodecName),
		nullableStringPtr(meta.ContainerFormat),
		nullableInt64Ptr(meta.ByteSize),
		nullableString(asset.ErrorMessage),
		timestamp(now),
		timestamp(now),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// GetAsset fetches an asset by identifier. Returns nil when not found.
func (s *Store) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM media_assets WHERE asset_id = ?`, assetID)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

// ListAssets returns assets filtered by status set (or all assets when no
// status is provided), ordered by creation time.
func (s *Store) ListAssets(ctx context.Context, statuses ...AssetStatus) ([]*Asset, error) {
	baseQuery := `SELECT ` + assetColumns + ` FROM media_assets`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []*Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// UpdateAssetStatus transitions the review status. Moving into the approved
// state clears any stale error message.
func (s *Store) UpdateAssetStatus(ctx context.Context, assetID string, status AssetStatus) error {
	query := `UPDATE media_assets SET status = ?, updated_at = ? WHERE asset_id = ?`
	if status == StatusApproved {
		query = `UPDATE media_assets SET status = ?, updated_at = ?, error_message = NULL WHERE asset_id = ?`
	}
	res, err := s.db.ExecContext(ctx, query, status, timestamp(time.Now()), assetID)
	if err != nil {
		return fmt.Errorf("update asset status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "update status", assetID, nil)
	}
	return nil
}

// SetAssetError records a human-readable failure message on the asset.
func (s *Store) SetAssetError(ctx context.Context, assetID, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE media_assets SET error_message = ?, updated_at = ? WHERE asset_id = ?`,
		nullableString(message),
		timestamp(time.Now()),
		assetID,
	)
	if err != nil {
		return fmt.Errorf("set asset error: %w", err)
	}
	return nil
}

// AssetMetadata returns the cached metadata record (possibly nil) and the
// owned source path. Implements media.DurationStore.
func (s *Store) AssetMetadata(ctx context.Context, assetID string) (*media.Metadata, string, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return nil, "", err
	}
	if asset == nil {
		return nil, "", services.Wrap(services.ErrNotFound, "store", "asset metadata", assetID, nil)
	}
	return asset.Metadata, asset.SourcePath, nil
}

// SaveAssetMetadata upserts the probed metadata record onto the asset row.
// Implements media.DurationStore.
func (s *Store) SaveAssetMetadata(ctx context.Context, assetID string, meta *media.Metadata) error {
	if meta == nil {
		meta = &media.Metadata{}
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE media_assets
         SET duration_seconds = ?, frame_rate = ?, width = ?, height = ?,
             aspect_ratio = ?, rotation_raw = ?, codec_name = ?, container_format = ?,
             byte_size = ?, updated_at = ?
         WHERE asset_id = ?`,
		nullableFloatPtr(meta.DurationSeconds),
		nullableFloatPtr(meta.FrameRate),
		nullableIntPtr(meta.Width),
		nullableIntPtr(meta.Height),
		nullableStringPtr(meta.AspectRatio),
		nullableStringPtr(meta.RotationRaw),
		nullableStringPtr(meta.CodecName),
		nullableStringPtr(meta.ContainerFormat),
		nullableInt64Ptr(meta.ByteSize),
		timestamp(time.Now()),
		assetID,
	)
	if err != nil {
		return fmt.Errorf("save asset metadata: %w", err)
	}
	return nil
}

// RemoveAsset deletes the asset row; clip and job-state rows cascade.
func (s *Store) RemoveAsset(ctx context.Context, assetID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media_assets WHERE asset_id = ?`, assetID)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*Asset, error) {
	var (
		id           string
		title        string
		sourcePath   string
		statusStr    string
		duration     sql.NullFloat64
		frameRate    sql.NullFloat64
		width        sql.NullInt64
		height       sql.NullInt64
		aspectRatio  sql.NullString
		rotationRaw  sql.NullString
		codecName    sql.NullString
		container    sql.NullString
		byteSize     sql.NullInt64
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&title,
		&sourcePath,
		&statusStr,
		&duration,
		&frameRate,
		&width,
		&height,
		&aspectRatio,
		&rotationRaw,
		&codecName,
		&container,
		&byteSize,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	asset := &Asset{
		ID:           id,
		Title:        title,
		SourcePath:   sourcePath,
		Status:       AssetStatus(statusStr),
		ErrorMessage: errorMessage.String,
	}

	meta := &media.Metadata{
		DurationSeconds: floatPtr(duration),
		FrameRate:       floatPtr(frameRate),
		Width:           intPtr(width),
		Height:          intPtr(height),
		AspectRatio:     stringPtr(aspectRatio),
		RotationRaw:     stringPtr(rotationRaw),
		CodecName:       stringPtr(codecName),
		ContainerFormat: stringPtr(container),
		ByteSize:        int64Ptr(byteSize),
	}
	if hasAnyMetadata(meta) {
		asset.Metadata = meta
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		asset.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		asset.UpdatedAt = updated
	}
	return asset, nil
}

func hasAnyMetadata(meta *media.Metadata) bool {
	return meta.DurationSeconds != nil || meta.FrameRate != nil || meta.Width != nil ||
		meta.Height != nil || meta.AspectRatio != nil || meta.RotationRaw != nil ||
		meta.CodecName != nil || meta.ContainerFormat != nil || meta.ByteSize != nil
}

func nullableStringPtr(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
