package services

import "context"

type contextKey string

const (
	assetIDKey   contextKey = "asset_id"
	clipIndexKey contextKey = "clip_index"
	requestIDKey contextKey = "request_id"
)

// WithAssetID annotates context with the media asset identifier.
func WithAssetID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, assetIDKey, id)
}

// AssetIDFromContext extracts the media asset identifier if present.
func AssetIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(assetIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithClipIndex annotates context with the clip index being processed.
func WithClipIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, clipIndexKey, index)
}

// ClipIndexFromContext extracts the clip index if present.
func ClipIndexFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(clipIndexKey).(int); ok {
		return v, true
	}
	return 0, false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
