// Package api exposes the review and pipeline operations over a local HTTP
// surface consumed by the CLI and other frontends.
package api
