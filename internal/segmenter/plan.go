package segmenter

import "math"

// minSegmentSeconds is the negligible-tail threshold: a planned segment
// shorter than this is dropped because the duration divides into fewer
// full clips.
const minSegmentSeconds = 0.01

// Segment is one planned clip boundary.
type Segment struct {
	Index  int
	Start  float64
	Length float64
}

// PlanSegments computes the clip boundary plan for a duration. The result is
// gapless: segment i starts at i*clipLength, every segment except the last
// has exactly clipLength seconds, and the tail carries the remainder. A
// positive duration always yields at least one segment.
func PlanSegments(duration, clipLength float64) []Segment {
	if duration <= 0 || clipLength <= 0 {
		return nil
	}
	count := int(math.Ceil(duration / clipLength))
	if count < 1 {
		count = 1
	}
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * clipLength
		length := math.Min(clipLength, duration-start)
		if length < minSegmentSeconds {
			break
		}
		segments = append(segments, Segment{Index: i, Start: start, Length: length})
	}
	return segments
}
