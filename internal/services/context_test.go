package services

import (
	"context"
	"testing"
)

func TestAssetIDRoundTrip(t *testing.T) {
	ctx := WithAssetID(context.Background(), "abc123")
	id, ok := AssetIDFromContext(ctx)
	if !ok || id != "abc123" {
		t.Fatalf("expected asset id, got %q ok=%v", id, ok)
	}
	if _, ok := AssetIDFromContext(context.Background()); ok {
		t.Fatalf("expected no asset id on empty context")
	}
}

func TestClipIndexRoundTrip(t *testing.T) {
	ctx := WithClipIndex(context.Background(), 2)
	idx, ok := ClipIndexFromContext(ctx)
	if !ok || idx != 2 {
		t.Fatalf("expected clip index 2, got %d ok=%v", idx, ok)
	}
}

func TestEmptyValuesDoNotAnnotate(t *testing.T) {
	ctx := WithAssetID(context.Background(), "")
	if _, ok := AssetIDFromContext(ctx); ok {
		t.Fatalf("empty asset id should not annotate context")
	}
	ctx = WithRequestID(context.Background(), "")
	if _, ok := RequestIDFromContext(ctx); ok {
		t.Fatalf("empty request id should not annotate context")
	}
}
