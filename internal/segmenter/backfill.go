package segmenter

import (
	"context"
	"os"
	"sort"

	"clipforge/internal/library"
	"clipforge/internal/logging"
)

// BackfillResult summarizes one backfill pass over an asset's clip
// directory.
type BackfillResult struct {
	Scanned  int
	Upserted int
}

// Backfill scans the clip directory on disk and upserts a row for every
// completed clip file, repairing store drift without re-encoding anything.
// A missing clip directory yields zero counts, not an error.
func (s *Segmenter) Backfill(ctx context.Context, assetID string) (BackfillResult, error) {
	var result BackfillResult

	entries, err := os.ReadDir(s.layout.ClipsDir(assetID))
	if os.IsNotExist(err) {
		return result, nil
	}
	if err != nil {
		return result, err
	}

	logger := s.logger.With(logging.String(logging.FieldAssetID, assetID))

	type found struct {
		index int
		name  string
	}
	var clips []found
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		index, ok := library.ParseClipName(entry.Name())
		if !ok {
			continue
		}
		clips = append(clips, found{index: index, name: entry.Name()})
	}
	sort.Slice(clips, func(i, j int) bool { return clips[i].index < clips[j].index })

	for _, clip := range clips {
		result.Scanned++
		path := s.layout.ClipPath(assetID, clip.index)

		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("skipping unreadable clip file",
				logging.String("name", clip.name),
				logging.Error(err))
			continue
		}
		if info.Size() <= s.cfg.MinClipBytes {
			// Truncated leftover from an interrupted run; the next
			// generation pass regenerates it.
			logger.Debug("skipping incomplete clip file",
				logging.String("name", clip.name),
				logging.Int64("bytes", info.Size()))
			continue
		}

		s.upsertClipRow(ctx, assetID, clip.index, path, logger)
		result.Upserted++
	}

	logger.Info("backfill pass complete",
		logging.Int("scanned", result.Scanned),
		logging.Int("upserted", result.Upserted))
	return result, nil
}
