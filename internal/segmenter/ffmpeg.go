package segmenter

import "strconv"

// buildSegmentArgs assembles the ffmpeg invocation for one clip. Both
// streams are re-encoded: stream copy at arbitrary cut points produces
// keyframe-boundary artifacts, so it is explicitly avoided. The faststart
// flag moves the moov atom up front for progressive playback.
func buildSegmentArgs(sourcePath string, start, length float64, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", sourcePath,
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		outputPath,
	}
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
