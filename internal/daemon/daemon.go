package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clipforge/internal/api"
	"clipforge/internal/config"
	"clipforge/internal/deps"
	"clipforge/internal/execx"
	"clipforge/internal/library"
	"clipforge/internal/logging"
	"clipforge/internal/segmenter"
	"clipforge/internal/store"
)

// staleSweepInterval is how often generating jobs are checked for missing
// heartbeats while the daemon runs. Startup always sweeps once immediately.
const staleSweepInterval = time.Minute

// Daemon coordinates the clip pipeline services and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	segmenter  *segmenter.Segmenter
	dispatcher *segmenter.Dispatcher
	server     *api.Server

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	serverErr chan error
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DBPath       string
	LockFilePath string
	APIBind      string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "daemon"))

	runner := execx.NewCommandRunner()
	seg := segmenter.New(cfg, st, runner, logger)
	dispatcher := segmenter.NewDispatcher(seg, cfg.Workers, logger)
	layout := library.NewLayout(cfg.LibraryDir)
	importer := library.NewImporter(st, layout, logger)

	lockPath := filepath.Join(cfg.LogDir, "clipforged.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		segmenter:  seg,
		dispatcher: dispatcher,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		serverErr:  make(chan error, 1),
	}

	d.server = api.NewServer(api.ServerConfig{
		Bind:       cfg.APIBind,
		Version:    "1.0.0",
		Store:      st,
		Importer:   importer,
		Segmenter:  seg,
		Dispatcher: dispatcher,
		Logger:     logger,
		StartTime:  time.Now(),
		// Runs triggered over HTTP must survive request cancellation.
		BaseContext: context.Background(),
	})
	return d, nil
}

// Start verifies external binaries, acquires the instance lock, recovers
// stale jobs, resumes interrupted approved assets, and serves the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := deps.Verify(d.cfg); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clipforge daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if _, err := segmenter.RecoverStaleJobs(d.ctx, d.store, d.cfg.StaleJobTimeout(), d.logger); err != nil {
		d.logger.Warn("startup stale-job sweep failed", logging.Error(err))
	}
	d.resumeInterrupted()

	d.wg.Add(1)
	go d.sweepLoop()

	go func() {
		d.serverErr <- d.server.Start()
	}()

	d.running.Store(true)
	d.logger.Info("clipforge daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api_bind", d.cfg.APIBind))
	return nil
}

// resumeInterrupted re-submits approved assets whose generation never
// finished, so a daemon restart picks up where the previous run stopped.
func (d *Daemon) resumeInterrupted() {
	assets, err := d.store.ListAssets(d.ctx, store.StatusApproved)
	if err != nil {
		d.logger.Warn("failed to list approved assets for resume", logging.Error(err))
		return
	}
	for _, asset := range assets {
		job, err := d.store.JobStateFor(d.ctx, asset.ID)
		if err != nil {
			d.logger.Warn("failed to read job state for resume",
				logging.String(logging.FieldAssetID, asset.ID),
				logging.Error(err))
			continue
		}
		if job != nil && job.State == store.JobDone {
			continue
		}
		d.logger.Info("resuming interrupted generation",
			logging.String(logging.FieldAssetID, asset.ID))
		d.dispatcher.Submit(d.ctx, asset.ID)
	}
}

func (d *Daemon) sweepLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(staleSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if _, err := segmenter.RecoverStaleJobs(d.ctx, d.store, d.cfg.StaleJobTimeout(), d.logger); err != nil {
				d.logger.Warn("stale-job sweep failed", logging.Error(err))
			}
		}
	}
}

// Wait blocks until the HTTP server exits, returning its error.
func (d *Daemon) Wait() error {
	return <-d.serverErr
}

// Stop shuts down the API, drains in-flight generation runs, and releases
// the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("api shutdown failed", logging.Error(err))
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.dispatcher.Shutdown()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("clipforge daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information for CLI display.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
		APIBind:      d.cfg.APIBind,
	}
}
