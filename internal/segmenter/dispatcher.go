package segmenter

import (
	"context"
	"log/slog"
	"sync"

	"clipforge/internal/logging"
)

// Dispatcher runs clip generation on a bounded worker pool. Submit is
// fire-and-forget; callers observe outcomes through the persisted job
// state, not a return value.
type Dispatcher struct {
	segmenter *Segmenter
	logger    *slog.Logger
	slots     chan struct{}
	wg        sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher constructs a dispatcher with the given concurrency limit.
func NewDispatcher(segmenter *Segmenter, workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		segmenter: segmenter,
		logger:    logger.With(logging.String(logging.FieldComponent, "dispatcher")),
		slots:     make(chan struct{}, workers),
	}
}

// Submit schedules a generation run for the asset. Returns false when the
// dispatcher is already shut down. Duplicate submissions for an asset that
// is already generating are absorbed by the segmenter's in-flight guard.
func (d *Dispatcher) Submit(ctx context.Context, assetID string) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		select {
		case d.slots <- struct{}{}:
			defer func() { <-d.slots }()
		case <-ctx.Done():
			d.logger.Warn("dropping queued run, context cancelled",
				logging.String(logging.FieldAssetID, assetID))
			return
		}
		if err := d.segmenter.Run(ctx, assetID); err != nil {
			// Already persisted; log for the daemon journal only.
			d.logger.Error("generation run failed",
				logging.String(logging.FieldAssetID, assetID),
				logging.Error(err))
		}
	}()
	return true
}

// Shutdown stops accepting new work and waits for in-flight runs to finish.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
