package segmenter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/execx"
	"clipforge/internal/fileutil"
	"clipforge/internal/library"
	"clipforge/internal/logging"
	"clipforge/internal/media"
	"clipforge/internal/services"
	"clipforge/internal/store"
)

// errorExcerptLimit bounds the stderr excerpt persisted to the job state;
// the full text always goes to the diagnostic log file.
const errorExcerptLimit = 2000

// Segmenter drives clip generation for approved assets through the
// NotStarted -> Generating -> {Done | Failed} state machine.
type Segmenter struct {
	cfg       *config.Config
	store     *store.Store
	layout    library.Layout
	runner    execx.Runner
	extractor *media.Extractor
	resolver  *media.DurationResolver
	logger    *slog.Logger
	guard     *inflightGuard
}

// New constructs a Segmenter.
func New(cfg *config.Config, st *store.Store, runner execx.Runner, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = logging.NewNop()
	}
	extractor := media.NewExtractor(runner, cfg.FFprobeBinary(), cfg.ProbeTimeout())
	return &Segmenter{
		cfg:       cfg,
		store:     st,
		layout:    library.NewLayout(cfg.LibraryDir),
		runner:    runner,
		extractor: extractor,
		resolver:  media.NewDurationResolver(st, extractor, logger),
		logger:    logger.With(logging.String(logging.FieldComponent, "segmenter")),
		guard:     newInflightGuard(),
	}
}

// Run generates all clips for the asset. Guard conditions (asset not
// approved, another run in flight) are silent no-ops. Probe and transcode
// failures are persisted to the job state and asset record before the error
// is returned, because the triggering caller is typically fire-and-forget.
func (s *Segmenter) Run(ctx context.Context, assetID string) error {
	asset, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		return err
	}
	if asset == nil || asset.Status != store.StatusApproved {
		return nil
	}

	if !s.guard.acquire(assetID) {
		return nil
	}
	defer s.guard.release(assetID)

	ctx = services.WithAssetID(ctx, assetID)
	logger := logging.WithContext(ctx, s.logger)

	if err := s.store.SetJobState(ctx, assetID, store.JobGenerating, "", nil); err != nil {
		return fmt.Errorf("persist generating transition: %w", err)
	}
	logger.Info("clip generation started", logging.String(logging.FieldEventType, "run_start"))

	if err := s.repairDriftIfNeeded(ctx, assetID, logger); err != nil {
		return s.failRun(ctx, assetID, logger, nil, err)
	}

	duration, err := s.resolver.Resolve(ctx, assetID)
	if err != nil {
		return s.failRun(ctx, assetID, logger, nil, err)
	}

	plan := PlanSegments(duration, float64(s.cfg.ClipLengthSeconds))
	logger.Info("segment plan computed",
		logging.Float64("duration_seconds", duration),
		logging.Int("segments", len(plan)))

	for _, segment := range plan {
		approved, err := s.stillApproved(ctx, assetID)
		if err != nil {
			return s.failRun(ctx, assetID, logger, nil, err)
		}
		if !approved {
			message := fmt.Sprintf("asset left approved status during generation at clip %d", segment.Index)
			if err := s.store.SetJobState(ctx, assetID, store.JobFailed, message, nil); err != nil {
				logger.Error("failed to persist cancellation", logging.Error(err))
			}
			logger.Warn("run stopped: asset no longer approved", logging.Int(logging.FieldClipIndex, segment.Index))
			return nil
		}

		if err := s.processSegment(ctx, assetID, asset.SourcePath, segment, logger); err != nil {
			return err
		}
	}

	if err := s.store.SetJobState(ctx, assetID, store.JobDone, "", nil); err != nil {
		return fmt.Errorf("persist done transition: %w", err)
	}
	logger.Info("clip generation completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("clips", len(plan)))
	return nil
}

// repairDriftIfNeeded runs the backfill scanner when clip files exist on
// disk but the store has no rows for the asset.
func (s *Segmenter) repairDriftIfNeeded(ctx context.Context, assetID string, logger *slog.Logger) error {
	count, err := s.store.ClipCount(ctx, assetID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if !s.hasClipFiles(assetID) {
		return nil
	}

	logger.Info("clip files found with no rows, running backfill before planning")
	result, err := s.Backfill(ctx, assetID)
	if err != nil {
		return err
	}
	logger.Info("drift repair complete",
		logging.Int("scanned", result.Scanned),
		logging.Int("upserted", result.Upserted))
	return nil
}

func (s *Segmenter) hasClipFiles(assetID string) bool {
	entries, err := os.ReadDir(s.layout.ClipsDir(assetID))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := library.ParseClipName(entry.Name()); ok {
			return true
		}
	}
	return false
}

func (s *Segmenter) stillApproved(ctx context.Context, assetID string) (bool, error) {
	asset, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		return false, err
	}
	return asset != nil && asset.Status == store.StatusApproved, nil
}

func (s *Segmenter) processSegment(ctx context.Context, assetID, sourcePath string, segment Segment, logger *slog.Logger) error {
	segCtx := services.WithClipIndex(ctx, segment.Index)
	segLogger := logging.WithContext(segCtx, s.logger)
	outputPath := s.layout.ClipPath(assetID, segment.Index)

	if fileutil.FileNonTrivial(outputPath, s.cfg.MinClipBytes) {
		// Completed on a previous run; repair a missing row if the store
		// drifted, otherwise leave everything untouched.
		existing, err := s.store.GetClip(segCtx, assetID, segment.Index)
		if err != nil {
			return s.failRun(segCtx, assetID, segLogger, nil, err)
		}
		if existing == nil {
			segLogger.Info("clip file present without row, backfilling metadata")
			s.upsertClipRow(segCtx, assetID, segment.Index, outputPath, segLogger)
		}
		segLogger.Debug("segment already complete, skipping transcode")
		return nil
	}

	if _, err := os.Stat(outputPath); err == nil {
		// Zero-length or truncated output from an interrupted run. Never
		// append to or patch a partial file.
		segLogger.Warn("removing truncated clip before regeneration")
		if err := os.Remove(outputPath); err != nil {
			return s.failRun(segCtx, assetID, segLogger, nil, fmt.Errorf("remove truncated clip: %w", err))
		}
	}

	args := buildSegmentArgs(sourcePath, segment.Start, segment.Length, outputPath)
	segLogger.Info("transcoding segment",
		logging.Float64("start_seconds", segment.Start),
		logging.Float64("length_seconds", segment.Length))

	result, err := s.runner.Run(segCtx, s.cfg.FFmpegBinary(), args, s.cfg.TranscodeTimeout())
	if err != nil {
		return s.failRun(segCtx, assetID, segLogger, nil, services.Wrap(services.ErrTranscode, "segmenter", "launch ffmpeg", outputPath, err))
	}
	if result.ExitCode != 0 {
		s.writeDiagnosticLog(assetID, segment.Index, args, result)
		excerpt := tailExcerpt(result.Stderr, errorExcerptLimit)
		message := fmt.Sprintf("transcode of clip %d failed with exit %d", segment.Index, result.ExitCode)
		if result.TimedOut() {
			message = fmt.Sprintf("transcode of clip %d timed out after %s", segment.Index, s.cfg.TranscodeTimeout())
		}
		exitCode := result.ExitCode
		wrapped := services.Wrap(services.ErrTranscode, "segmenter", "transcode", message, nil)
		return s.failRun(segCtx, assetID, segLogger, &exitCode, wrapped, excerpt)
	}

	s.upsertClipRow(segCtx, assetID, segment.Index, outputPath, segLogger)

	// Heartbeat so stale-job recovery does not reap a slow but live run.
	if err := s.store.TouchJobState(segCtx, assetID); err != nil {
		segLogger.Warn("heartbeat update failed", logging.Error(err))
	}
	return nil
}

// upsertClipRow extracts clip metadata and writes the row. Extraction
// problems degrade to a row with unknown fields; the clip file itself is
// already in place.
func (s *Segmenter) upsertClipRow(ctx context.Context, assetID string, index int, path string, logger *slog.Logger) {
	clip := &store.Clip{AssetID: assetID, Index: index, Path: path}
	meta, err := s.extractor.Extract(ctx, path)
	if err != nil {
		logger.Warn("clip metadata extraction failed, storing row with unknown fields", logging.Error(err))
		if info, statErr := os.Stat(path); statErr == nil {
			size := info.Size()
			clip.ByteSize = &size
		}
	} else {
		clip.DurationSeconds = meta.DurationSeconds
		clip.FrameRate = meta.FrameRate
		clip.Width = meta.Width
		clip.Height = meta.Height
		clip.ByteSize = meta.ByteSize
	}
	if err := s.store.UpsertClip(ctx, clip); err != nil {
		logger.Error("failed to upsert clip row", logging.Error(err))
	}
}

// failRun persists the failure to the job state and asset record, then
// returns the original error. Optional excerpt overrides the persisted
// error text.
func (s *Segmenter) failRun(ctx context.Context, assetID string, logger *slog.Logger, exitCode *int, cause error, excerpt ...string) error {
	text := services.Message(cause)
	if len(excerpt) > 0 && strings.TrimSpace(excerpt[0]) != "" {
		text = excerpt[0]
	}
	if err := s.store.SetJobState(ctx, assetID, store.JobFailed, text, exitCode); err != nil {
		logger.Error("failed to persist job failure", logging.Error(err))
	}
	if err := s.store.SetAssetError(ctx, assetID, services.Message(cause)); err != nil {
		logger.Error("failed to persist asset error", logging.Error(err))
	}
	logger.Error("clip generation failed",
		logging.String(logging.FieldEventType, "run_failure"),
		logging.Error(cause))
	return cause
}

// writeDiagnosticLog stores the full transcoder output for one failed
// segment; the database keeps only a bounded excerpt.
func (s *Segmenter) writeDiagnosticLog(assetID string, index int, args []string, result execx.Result) {
	if strings.TrimSpace(s.cfg.LogDir) == "" {
		return
	}
	name := fmt.Sprintf("transcode-%s-clip%03d-%s.log", assetID, index, time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(s.cfg.LogDir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "command: %s %s\n", s.cfg.FFmpegBinary(), strings.Join(args, " "))
	fmt.Fprintf(&b, "exit code: %d\n", result.ExitCode)
	b.WriteString("--- stdout ---\n")
	b.WriteString(result.Stdout)
	b.WriteString("\n--- stderr ---\n")
	b.WriteString(result.Stderr)
	b.WriteString("\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		s.logger.Warn("failed to write transcode diagnostic log",
			logging.String("path", path),
			logging.Error(err))
	}
}

func tailExcerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[len(text)-limit:]
}
