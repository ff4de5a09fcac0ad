package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"clipforge/internal/fileutil"
	"clipforge/internal/logging"
	"clipforge/internal/store"
)

// Importer copies user files into the owned library layout and registers
// pending assets.
type Importer struct {
	store  *store.Store
	layout Layout
	logger *slog.Logger
}

// NewImporter constructs an Importer.
func NewImporter(st *store.Store, layout Layout, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{
		store:  st,
		layout: layout,
		logger: logger.With(logging.String(logging.FieldComponent, "importer")),
	}
}

// Import copies the file at sourcePath into a fresh per-asset directory and
// inserts a Pending asset row. The returned asset references the owned copy,
// never the caller's original file.
func (i *Importer) Import(ctx context.Context, sourcePath string) (*store.Asset, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("stat import source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("import source %q is a directory", sourcePath)
	}

	assetID := uuid.NewString()
	ownedPath := i.layout.SourcePath(assetID, filepath.Ext(sourcePath))

	if err := os.MkdirAll(i.layout.ClipsDir(assetID), 0o755); err != nil {
		return nil, fmt.Errorf("create asset directories: %w", err)
	}
	if err := fileutil.CopyFileVerified(sourcePath, ownedPath); err != nil {
		_ = os.RemoveAll(i.layout.AssetDir(assetID))
		return nil, fmt.Errorf("copy import source: %w", err)
	}

	asset := &store.Asset{
		ID:         assetID,
		Title:      DeriveTitle(sourcePath),
		SourcePath: ownedPath,
		Status:     store.StatusPending,
	}
	if err := i.store.InsertAsset(ctx, asset); err != nil {
		_ = os.RemoveAll(i.layout.AssetDir(assetID))
		return nil, err
	}

	i.logger.Info("imported asset",
		logging.String(logging.FieldAssetID, assetID),
		logging.String("title", asset.Title),
		logging.Int64("bytes", info.Size()))
	return asset, nil
}

// Delete removes an asset and everything it owns. The filesystem step runs
// first and is best-effort so a permission error cannot leave an orphaned
// database row forever.
func (i *Importer) Delete(ctx context.Context, assetID string) error {
	asset, err := i.store.GetAsset(ctx, assetID)
	if err != nil {
		return err
	}
	if asset == nil {
		return fmt.Errorf("asset %s not found", assetID)
	}

	assetDir := i.layout.AssetDir(assetID)
	if err := os.RemoveAll(assetDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		i.logger.Warn("failed to remove asset files, continuing with row delete",
			logging.String(logging.FieldAssetID, assetID),
			logging.Error(err))
	}

	removed, err := i.store.RemoveAsset(ctx, assetID)
	if err != nil {
		return err
	}
	if removed {
		i.logger.Info("deleted asset", logging.String(logging.FieldAssetID, assetID))
	}
	return nil
}
