package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/execx"
	"clipforge/internal/media/ffprobe"
	"clipforge/internal/services"
)

// Metadata is the structured per-asset record shared by videos and clips.
// Every field is independently nullable because extraction can partially
// fail; nil means unknown.
type Metadata struct {
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	FrameRate       *float64 `json:"frame_rate,omitempty"`
	Width           *int     `json:"width,omitempty"`
	Height          *int     `json:"height,omitempty"`
	AspectRatio     *string  `json:"aspect_ratio,omitempty"`
	RotationRaw     *string  `json:"rotation_raw,omitempty"`
	CodecName       *string  `json:"codec_name,omitempty"`
	ContainerFormat *string  `json:"container_format,omitempty"`
	ByteSize        *int64   `json:"byte_size,omitempty"`
}

// Extractor probes media files and derives Metadata records.
type Extractor struct {
	runner  execx.Runner
	binary  string
	timeout time.Duration
}

// NewExtractor constructs an Extractor around the given runner.
func NewExtractor(runner execx.Runner, binary string, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Extractor{runner: runner, binary: binary, timeout: timeout}
}

// Extract probes path and derives its metadata. A missing video stream is an
// ErrProbe; individual fields that cannot be derived stay nil.
func (e *Extractor) Extract(ctx context.Context, path string) (*Metadata, error) {
	result, err := ffprobe.Inspect(ctx, e.runner, e.binary, path, e.timeout)
	if err != nil {
		return nil, err
	}

	video := result.FirstVideoStream()
	if video == nil {
		return nil, services.Wrap(services.ErrProbe, "media", "extract", fmt.Sprintf("%s: no video stream", path), nil)
	}

	meta := &Metadata{}
	meta.DurationSeconds = pickDuration(result.Format.Duration, video.Duration)
	meta.FrameRate = pickFrameRate(video.RFrameRate, video.AvgFrameRate)

	if video.Width > 0 {
		width := video.Width
		meta.Width = &width
	}
	if video.Height > 0 {
		height := video.Height
		meta.Height = &height
	}
	meta.AspectRatio = pickAspectRatio(video.DisplayAspectRatio, video.Width, video.Height)
	meta.RotationRaw = pickRotation(video)

	if codec := strings.TrimSpace(video.CodecName); codec != "" {
		meta.CodecName = &codec
	}
	if container := strings.TrimSpace(result.Format.FormatName); container != "" {
		meta.ContainerFormat = &container
	}
	meta.ByteSize = pickByteSize(path, result.Format.Size)

	return meta, nil
}

// pickDuration prefers the container duration over the stream duration and
// requires a finite non-negative value.
func pickDuration(formatDuration, streamDuration string) *float64 {
	for _, candidate := range []string{formatDuration, streamDuration} {
		value, err := strconv.ParseFloat(strings.TrimSpace(candidate), 64)
		if err != nil {
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			continue
		}
		return &value
	}
	return nil
}

// pickFrameRate prefers the real frame-rate expression over the average one.
// A rational a/b is valid only when b is non-zero and the quotient is finite
// and positive.
func pickFrameRate(real, average string) *float64 {
	for _, expr := range []string{real, average} {
		if rate, ok := parseRational(expr); ok {
			return &rate
		}
	}
	return nil
}

func parseRational(expr string) (float64, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false
	}
	num, den, found := strings.Cut(expr, "/")
	if !found {
		value, err := strconv.ParseFloat(expr, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
			return 0, false
		}
		return value, true
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, false
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || b == 0 {
		return 0, false
	}
	value := a / b
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, false
	}
	return value, true
}

// pickAspectRatio prefers the reported display aspect ratio when it is not a
// degenerate sentinel, then derives W:H from pixel dimensions.
func pickAspectRatio(reported string, width, height int) *string {
	reported = strings.TrimSpace(reported)
	if reported != "" && reported != "0:1" && !strings.EqualFold(reported, "N/A") {
		return &reported
	}
	if width > 0 && height > 0 {
		derived := fmt.Sprintf("%d:%d", width, height)
		return &derived
	}
	return nil
}

// pickRotation checks the explicit rotate tag first, then scans side data
// entries (including display matrices) for a rotation value. Display only;
// never used to transform pixels.
func pickRotation(video *ffprobe.Stream) *string {
	if tag, ok := video.Tags["rotate"]; ok {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			return &trimmed
		}
	}
	for _, side := range video.SideDataList {
		if side.Rotation == "" {
			continue
		}
		value := side.Rotation.String()
		if strings.TrimSpace(value) != "" {
			return &value
		}
	}
	return nil
}

// pickByteSize prefers a live filesystem stat over the prober-reported size.
func pickByteSize(path, reported string) *int64 {
	if info, err := os.Stat(path); err == nil {
		size := info.Size()
		return &size
	}
	if value, err := strconv.ParseInt(strings.TrimSpace(reported), 10, 64); err == nil && value >= 0 {
		return &value
	}
	return nil
}
