package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipforge/internal/execx"
	"clipforge/internal/services"
)

type scriptedRunner struct {
	results []execx.Result
	calls   int
}

func (s *scriptedRunner) Run(ctx context.Context, binary string, args []string, timeout time.Duration) (execx.Result, error) {
	if s.calls >= len(s.results) {
		return execx.Result{ExitCode: 1, Stderr: "no scripted result"}, nil
	}
	result := s.results[s.calls]
	s.calls++
	return result, nil
}

func probeJSON(format string, streams ...string) string {
	payload := "{\"streams\": ["
	for i, stream := range streams {
		if i > 0 {
			payload += ","
		}
		payload += stream
	}
	payload += "], \"format\": " + format + "}"
	return payload
}

const videoStream = `{"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720,
  "r_frame_rate": "30000/1001", "avg_frame_rate": "25/1", "display_aspect_ratio": "16:9"}`

func TestExtractDerivesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.mp4")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	runner := &scriptedRunner{results: []execx.Result{{
		Stdout: probeJSON(`{"duration": "250.0", "size": "999", "format_name": "mov,mp4"}`, videoStream),
	}}}
	extractor := NewExtractor(runner, "ffprobe", time.Minute)

	meta, err := extractor.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if meta.DurationSeconds == nil || *meta.DurationSeconds != 250.0 {
		t.Fatalf("unexpected duration: %v", meta.DurationSeconds)
	}
	if meta.FrameRate == nil || *meta.FrameRate < 29.96 || *meta.FrameRate > 29.98 {
		t.Fatalf("expected ~29.97 fps, got %v", meta.FrameRate)
	}
	if meta.Width == nil || *meta.Width != 1280 || meta.Height == nil || *meta.Height != 720 {
		t.Fatalf("unexpected dimensions: %v x %v", meta.Width, meta.Height)
	}
	if meta.AspectRatio == nil || *meta.AspectRatio != "16:9" {
		t.Fatalf("unexpected aspect ratio: %v", meta.AspectRatio)
	}
	if meta.CodecName == nil || *meta.CodecName != "h264" {
		t.Fatalf("unexpected codec: %v", meta.CodecName)
	}
	// Live stat wins over the prober-reported 999 bytes.
	if meta.ByteSize == nil || *meta.ByteSize != 2048 {
		t.Fatalf("expected stat size 2048, got %v", meta.ByteSize)
	}
}

func TestExtractNoVideoStreamIsProbeError(t *testing.T) {
	runner := &scriptedRunner{results: []execx.Result{{
		Stdout: probeJSON(`{"duration": "10"}`, `{"index": 0, "codec_type": "audio", "codec_name": "aac"}`),
	}}}
	extractor := NewExtractor(runner, "ffprobe", time.Minute)
	_, err := extractor.Extract(context.Background(), "audio-only.mp4")
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
}

func TestPickFrameRate(t *testing.T) {
	cases := []struct {
		real, average string
		want          float64
		known         bool
	}{
		{"30000/1001", "25/1", 30000.0 / 1001.0, true},
		{"0/0", "25/1", 25, true},
		{"", "24/1", 24, true},
		{"0/0", "", 0, false},
		{"", "", 0, false},
		{"garbage", "also garbage", 0, false},
		{"-30/1", "", 0, false},
	}
	for _, tc := range cases {
		got := pickFrameRate(tc.real, tc.average)
		if tc.known {
			if got == nil || *got != tc.want {
				t.Fatalf("pickFrameRate(%q, %q) = %v, want %v", tc.real, tc.average, got, tc.want)
			}
		} else if got != nil {
			t.Fatalf("pickFrameRate(%q, %q) = %v, want unknown", tc.real, tc.average, *got)
		}
	}
}

func TestPickDuration(t *testing.T) {
	if got := pickDuration("120.5", "60"); got == nil || *got != 120.5 {
		t.Fatalf("container duration should win: %v", got)
	}
	if got := pickDuration("", "60"); got == nil || *got != 60 {
		t.Fatalf("stream fallback failed: %v", got)
	}
	if got := pickDuration("-5", "nan"); got != nil {
		t.Fatalf("invalid durations should be unknown: %v", *got)
	}
}

func TestPickAspectRatio(t *testing.T) {
	if got := pickAspectRatio("16:9", 1280, 720); got == nil || *got != "16:9" {
		t.Fatalf("reported DAR should win: %v", got)
	}
	if got := pickAspectRatio("0:1", 1280, 720); got == nil || *got != "1280:720" {
		t.Fatalf("degenerate DAR should fall back to dimensions: %v", got)
	}
	if got := pickAspectRatio("", 0, 0); got != nil {
		t.Fatalf("expected unknown aspect ratio: %v", *got)
	}
}

type memoryDurationStore struct {
	meta       *Metadata
	sourcePath string
	saved      *Metadata
	saves      int
}

func (m *memoryDurationStore) AssetMetadata(ctx context.Context, assetID string) (*Metadata, string, error) {
	return m.meta, m.sourcePath, nil
}

func (m *memoryDurationStore) SaveAssetMetadata(ctx context.Context, assetID string, meta *Metadata) error {
	m.saved = meta
	m.saves++
	return nil
}

func TestResolveUsesCache(t *testing.T) {
	duration := 300.0
	store := &memoryDurationStore{meta: &Metadata{DurationSeconds: &duration}}
	runner := &scriptedRunner{}
	resolver := NewDurationResolver(store, NewExtractor(runner, "ffprobe", time.Minute), nil)

	got, err := resolver.Resolve(context.Background(), "asset-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != 300.0 {
		t.Fatalf("unexpected duration: %v", got)
	}
	if runner.calls != 0 {
		t.Fatalf("cache hit should not probe")
	}
}

func TestResolveProbesAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.mp4")
	if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	store := &memoryDurationStore{sourcePath: path}
	runner := &scriptedRunner{results: []execx.Result{{
		Stdout: probeJSON(fmt.Sprintf(`{"duration": "42.5", "size": "100", "filename": %q}`, path), videoStream),
	}}}
	resolver := NewDurationResolver(store, NewExtractor(runner, "ffprobe", time.Minute), nil)

	got, err := resolver.Resolve(context.Background(), "asset-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != 42.5 {
		t.Fatalf("unexpected duration: %v", got)
	}
	if store.saves != 1 || store.saved == nil || store.saved.DurationSeconds == nil {
		t.Fatalf("probe result should be persisted")
	}
}

func TestResolveUnknownDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.mp4")
	if err := os.WriteFile(path, make([]byte, 10), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	noDuration := `{"index": 0, "codec_type": "video", "codec_name": "h264"}`
	store := &memoryDurationStore{sourcePath: path}
	runner := &scriptedRunner{results: []execx.Result{{Stdout: probeJSON(`{}`, noDuration)}}}
	resolver := NewDurationResolver(store, NewExtractor(runner, "ffprobe", time.Minute), nil)

	_, err := resolver.Resolve(context.Background(), "asset-1")
	if !errors.Is(err, services.ErrDurationUnknown) {
		t.Fatalf("expected ErrDurationUnknown, got %v", err)
	}
}

func TestPickRotationFromSideData(t *testing.T) {
	runner := &scriptedRunner{results: []execx.Result{{
		Stdout: probeJSON(`{"duration": "10"}`, `{"index": 0, "codec_type": "video", "codec_name": "h264",
		  "side_data_list": [{"side_data_type": "Display Matrix", "rotation": -90}]}`),
	}}}
	extractor := NewExtractor(runner, "ffprobe", time.Minute)
	meta, err := extractor.Extract(context.Background(), "rotated.mp4")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if meta.RotationRaw == nil || *meta.RotationRaw != "-90" {
		t.Fatalf("expected rotation -90, got %v", meta.RotationRaw)
	}
}
