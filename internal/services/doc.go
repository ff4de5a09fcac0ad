// Package services provides shared error classification and context
// annotation helpers used by the pipeline components.
//
// Errors produced by external tools are tagged with sentinel markers
// (ErrProbe, ErrTranscode, ...) via Wrap so callers can classify failures
// with errors.Is without parsing message text.
package services
