// Package logging wires log/slog with console and JSON handlers plus
// context-derived structured fields (asset id, clip index, correlation id).
package logging
