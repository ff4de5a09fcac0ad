// Package media derives structured metadata records from ffprobe output and
// resolves authoritative video durations with store-backed caching.
//
// Derivation priority rules live here: frame rate prefers the real
// frame-rate expression over the average one, duration prefers the container
// value over the stream value, aspect ratio prefers a reported display
// aspect ratio over pixel dimensions, and byte size prefers a live stat over
// the prober's self-reported value.
package media
