// Package segmenter generates fixed-length clips from approved assets and
// keeps the clip store consistent with the files on disk.
//
// A run plans ceil(duration/clipLength) segments, re-encodes each one with
// ffmpeg, and records per-clip metadata. Completed clips are detected by a
// size heuristic and skipped, so interrupted runs resume where they left
// off. Job state lives in the store; an in-process guard prevents
// concurrent runs for the same asset within one daemon.
package segmenter
