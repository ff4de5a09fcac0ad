package media

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"clipforge/internal/logging"
	"clipforge/internal/services"
)

// DurationStore is the slice of the metadata store the resolver needs.
type DurationStore interface {
	// AssetMetadata returns the cached metadata (possibly nil) and the
	// owned source path for the asset.
	AssetMetadata(ctx context.Context, assetID string) (*Metadata, string, error)
	// SaveAssetMetadata upserts a freshly probed metadata record.
	SaveAssetMetadata(ctx context.Context, assetID string, meta *Metadata) error
}

// DurationResolver returns the authoritative duration for a video,
// preferring cached metadata and falling back to a fresh probe whose result
// is persisted for subsequent calls.
type DurationResolver struct {
	store     DurationStore
	extractor *Extractor
	logger    *slog.Logger
}

// NewDurationResolver constructs a resolver.
func NewDurationResolver(store DurationStore, extractor *Extractor, logger *slog.Logger) *DurationResolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DurationResolver{store: store, extractor: extractor, logger: logger.With(logging.String(logging.FieldComponent, "duration-resolver"))}
}

// Resolve returns the asset duration in seconds. Safe to call repeatedly and
// concurrently for the same asset; the persisted probe result is an
// idempotent upsert.
func (r *DurationResolver) Resolve(ctx context.Context, assetID string) (float64, error) {
	cached, sourcePath, err := r.store.AssetMetadata(ctx, assetID)
	if err != nil {
		return 0, fmt.Errorf("load cached metadata: %w", err)
	}
	if duration, ok := usableDuration(cached); ok {
		return duration, nil
	}

	meta, err := r.extractor.Extract(ctx, sourcePath)
	if err != nil {
		return 0, err
	}
	if err := r.store.SaveAssetMetadata(ctx, assetID, meta); err != nil {
		return 0, fmt.Errorf("persist probed metadata: %w", err)
	}
	r.logger.Debug("refreshed asset metadata from probe", logging.String(logging.FieldAssetID, assetID))

	if duration, ok := usableDuration(meta); ok {
		return duration, nil
	}
	return 0, services.Wrap(services.ErrDurationUnknown, "duration-resolver", "resolve", assetID, nil)
}

func usableDuration(meta *Metadata) (float64, bool) {
	if meta == nil || meta.DurationSeconds == nil {
		return 0, false
	}
	duration := *meta.DurationSeconds
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return 0, false
	}
	return duration, true
}
