package segmenter

import (
	"context"
	"log/slog"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/store"
)

const staleJobMessage = "reaped by stale-job recovery: no heartbeat within the staleness window"

// RecoverStaleJobs force-fails generating jobs whose heartbeat is older
// than the configured staleness window. Run once at daemon startup and
// periodically afterwards; jobs with a live in-process run keep heartbeating
// and are never reaped.
func RecoverStaleJobs(ctx context.Context, st *store.Store, window time.Duration, logger *slog.Logger) (int64, error) {
	cutoff := time.Now().Add(-window)
	reaped, err := st.FailStaleJobs(ctx, cutoff, staleJobMessage)
	if err != nil {
		return 0, err
	}
	if reaped > 0 && logger != nil {
		logger.Warn("reaped stale generating jobs",
			logging.Int64("count", reaped),
			logging.Duration("window", window))
	}
	return reaped, nil
}
