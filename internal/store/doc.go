// Package store persists media assets, generated clips, and per-asset job
// states in SQLite. It is the single source of truth for the pipeline;
// every write is an upsert keyed by asset id (and clip index for clips).
package store
