package ffprobe

import (
	"context"
	"errors"
	"testing"
	"time"

	"clipforge/internal/execx"
	"clipforge/internal/services"
)

type stubRunner struct {
	result execx.Result
	err    error
	binary string
	args   []string
}

func (s *stubRunner) Run(ctx context.Context, binary string, args []string, timeout time.Duration) (execx.Result, error) {
	s.binary = binary
	s.args = args
	return s.result, s.err
}

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080,
     "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001",
     "display_aspect_ratio": "16:9", "tags": {"rotate": "90"}},
    {"index": 1, "codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"filename": "in.mp4", "nb_streams": 2, "duration": "250.5", "size": "1048576", "format_name": "mov,mp4,m4a"}
}`

func TestInspectParsesStreams(t *testing.T) {
	runner := &stubRunner{result: execx.Result{Stdout: sampleJSON}}
	result, err := Inspect(context.Background(), runner, "", "in.mp4", time.Minute)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if runner.binary != "ffprobe" {
		t.Fatalf("expected default binary, got %q", runner.binary)
	}
	video := result.FirstVideoStream()
	if video == nil {
		t.Fatalf("expected a video stream")
	}
	if video.RFrameRate != "30000/1001" || video.Width != 1920 {
		t.Fatalf("unexpected video stream: %+v", video)
	}
	if video.Tags["rotate"] != "90" {
		t.Fatalf("missing rotate tag")
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.Format.Duration != "250.5" {
		t.Fatalf("unexpected format duration: %q", result.Format.Duration)
	}
}

func TestInspectNonZeroExitIsProbeError(t *testing.T) {
	runner := &stubRunner{result: execx.Result{ExitCode: 1, Stderr: "No such file"}}
	_, err := Inspect(context.Background(), runner, "ffprobe", "gone.mp4", time.Minute)
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
}

func TestInspectTimeoutIsTimeoutError(t *testing.T) {
	runner := &stubRunner{result: execx.Result{ExitCode: execx.TimeoutExitCode}}
	_, err := Inspect(context.Background(), runner, "ffprobe", "slow.mp4", time.Second)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestInspectMalformedJSONIsProbeError(t *testing.T) {
	runner := &stubRunner{result: execx.Result{Stdout: "not json"}}
	_, err := Inspect(context.Background(), runner, "ffprobe", "in.mp4", time.Minute)
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", err)
	}
}

func TestInspectEmptyPathErrors(t *testing.T) {
	runner := &stubRunner{}
	if _, err := Inspect(context.Background(), runner, "ffprobe", " ", time.Minute); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
