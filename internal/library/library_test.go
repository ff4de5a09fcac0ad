package library_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"clipforge/internal/library"
	"clipforge/internal/store"
	"clipforge/internal/testsupport"
)

func TestLayoutPaths(t *testing.T) {
	layout := library.NewLayout("/srv/library")

	if got := layout.AssetDir("abc"); got != "/srv/library/abc" {
		t.Fatalf("AssetDir = %s", got)
	}
	if got := layout.SourcePath("abc", ".mkv"); got != "/srv/library/abc/source.mkv" {
		t.Fatalf("SourcePath = %s", got)
	}
	if got := layout.SourcePath("abc", "mov"); got != "/srv/library/abc/source.mov" {
		t.Fatalf("SourcePath without dot = %s", got)
	}
	if got := layout.SourcePath("abc", ""); got != "/srv/library/abc/source.mp4" {
		t.Fatalf("SourcePath default ext = %s", got)
	}
	if got := layout.ClipPath("abc", 7); got != "/srv/library/abc/clips/clip_007.mp4" {
		t.Fatalf("ClipPath = %s", got)
	}
}

func TestParseClipName(t *testing.T) {
	cases := []struct {
		name  string
		index int
		ok    bool
	}{
		{"clip_000.mp4", 0, true},
		{"clip_042.mp4", 42, true},
		{"clip_999.mp4", 999, true},
		{"clip_1000.mp4", 0, false},
		{"clip_12.mp4", 0, false},
		{"clip_000.mkv", 0, false},
		{"source.mp4", 0, false},
		{"clip_000.mp4.part", 0, false},
	}
	for _, tc := range cases {
		index, ok := library.ParseClipName(tc.name)
		if ok != tc.ok || index != tc.index {
			t.Fatalf("ParseClipName(%q) = %d, %v", tc.name, index, ok)
		}
	}
}

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/home/user/holiday_trip-2024.final.mp4", "Holiday Trip 2024 Final"},
		{"/tmp/MOV0001.mp4", "Mov0001"},
		{"weird---___name.mp4", "Weird Name"},
		{"...mp4", "Untitled Video"},
		{"", "Untitled Video"},
	}
	for _, tc := range cases {
		if got := library.DeriveTitle(tc.path); got != tc.want {
			t.Fatalf("DeriveTitle(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestImporterCopiesAndRegisters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	layout := library.NewLayout(cfg.LibraryDir)
	importer := library.NewImporter(st, layout, nil)

	original := filepath.Join(t.TempDir(), "my_video.mp4")
	testsupport.WriteFile(t, original, 64*1024)

	asset, err := importer.Import(context.Background(), original)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if asset.Status != store.StatusPending {
		t.Fatalf("status = %s, want pending", asset.Status)
	}
	if asset.Title != "My Video" {
		t.Fatalf("title = %q", asset.Title)
	}
	if asset.SourcePath == original {
		t.Fatal("asset references the caller's file instead of an owned copy")
	}
	info, err := os.Stat(asset.SourcePath)
	if err != nil {
		t.Fatalf("owned copy missing: %v", err)
	}
	if info.Size() != 64*1024 {
		t.Fatalf("owned copy size = %d", info.Size())
	}
	if _, err := os.Stat(layout.ClipsDir(asset.ID)); err != nil {
		t.Fatalf("clips dir missing: %v", err)
	}

	// The original stays untouched.
	if _, err := os.Stat(original); err != nil {
		t.Fatalf("original removed: %v", err)
	}

	stored, err := st.GetAsset(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if stored == nil || stored.SourcePath != asset.SourcePath {
		t.Fatalf("stored asset = %+v", stored)
	}
}

func TestImporterRejectsDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	importer := library.NewImporter(st, library.NewLayout(cfg.LibraryDir), nil)

	if _, err := importer.Import(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error importing a directory")
	}
}

func TestImporterRejectsMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	importer := library.NewImporter(st, library.NewLayout(cfg.LibraryDir), nil)

	if _, err := importer.Import(context.Background(), "/no/such/file.mp4"); err == nil {
		t.Fatal("expected error importing missing file")
	}
}

func TestImporterDeleteRemovesEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	layout := library.NewLayout(cfg.LibraryDir)
	importer := library.NewImporter(st, layout, nil)

	original := filepath.Join(t.TempDir(), "clip_source.mp4")
	testsupport.WriteFile(t, original, 2048)
	asset, err := importer.Import(context.Background(), original)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	// A couple of generated artifacts alongside the source.
	testsupport.WriteFile(t, layout.ClipPath(asset.ID, 0), 4096)
	if err := st.UpsertClip(context.Background(), &store.Clip{AssetID: asset.ID, Index: 0, Path: layout.ClipPath(asset.ID, 0)}); err != nil {
		t.Fatalf("UpsertClip: %v", err)
	}

	if err := importer.Delete(context.Background(), asset.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(layout.AssetDir(asset.ID)); !os.IsNotExist(err) {
		t.Fatalf("asset dir still present: %v", err)
	}
	stored, err := st.GetAsset(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if stored != nil {
		t.Fatalf("asset row survived delete: %+v", stored)
	}
	count, err := st.ClipCount(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("ClipCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("clip rows survived delete: %d", count)
	}

	if err := importer.Delete(context.Background(), "nope"); err == nil {
		t.Fatal("expected error deleting unknown asset")
	}
}
