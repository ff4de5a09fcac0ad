// Package config loads, validates, and normalizes the TOML configuration
// used by the daemon and CLI. Section structs are embedded in Config so
// their fields promote to the top level.
package config
