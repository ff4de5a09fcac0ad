package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"clipforge/internal/execx"
	"clipforge/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index              int               `json:"index"`
	CodecName          string            `json:"codec_name"`
	CodecType          string            `json:"codec_type"`
	Duration           string            `json:"duration"`
	Width              int               `json:"width"`
	Height             int               `json:"height"`
	RFrameRate         string            `json:"r_frame_rate"`
	AvgFrameRate       string            `json:"avg_frame_rate"`
	DisplayAspectRatio string            `json:"display_aspect_ratio"`
	Tags               map[string]string `json:"tags"`
	SideDataList       []SideData        `json:"side_data_list"`
}

// SideData carries auxiliary stream entries such as display matrices.
type SideData struct {
	SideDataType string      `json:"side_data_type"`
	Rotation     json.Number `json:"rotation"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// response. Tool failures and malformed output are reported as ErrProbe with
// the captured stderr attached for diagnostics.
func Inspect(ctx context.Context, runner execx.Runner, binary, path string, timeout time.Duration) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	result, err := runner.Run(ctx, binary, args, timeout)
	if err != nil {
		return Result{}, services.Wrap(services.ErrProbe, "ffprobe", "inspect", path, err)
	}
	if result.TimedOut() {
		return Result{}, services.Wrap(services.ErrTimeout, "ffprobe", "inspect", fmt.Sprintf("%s: timed out after %s", path, timeout), nil)
	}
	if result.ExitCode != 0 {
		detail := fmt.Sprintf("%s: exit %d: %s", path, result.ExitCode, strings.TrimSpace(result.Stderr))
		return Result{}, services.Wrap(services.ErrProbe, "ffprobe", "inspect", detail, nil)
	}

	var parsed Result
	if err := json.Unmarshal([]byte(result.Stdout), &parsed); err != nil {
		return Result{}, services.Wrap(services.ErrProbe, "ffprobe", "parse", path, err)
	}
	parsed.raw = []byte(result.Stdout)
	return parsed, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// FirstVideoStream returns the first stream with a video codec type, or nil.
func (r Result) FirstVideoStream() *Stream {
	for i := range r.Streams {
		if strings.EqualFold(r.Streams[i].CodecType, "video") {
			return &r.Streams[i]
		}
	}
	return nil
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}
