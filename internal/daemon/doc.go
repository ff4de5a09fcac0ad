// Package daemon wires the store, segmenter, importer, and HTTP API into a
// single long-running process with single-instance locking, crash recovery,
// and periodic stale-job sweeps.
package daemon
