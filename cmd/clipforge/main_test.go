package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipforge/internal/api"
	"clipforge/internal/execx"
	"clipforge/internal/library"
	"clipforge/internal/segmenter"
	"clipforge/internal/testsupport"
)

// stubCLIRunner satisfies the segmenter's runner without spawning processes.
type stubCLIRunner struct{}

func (stubCLIRunner) Run(_ context.Context, binary string, _ []string, _ time.Duration) (execx.Result, error) {
	if binary == "ffprobe" {
		return execx.Result{Stdout: `{
  "streams": [{"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720}],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "30.0"}
}`}, nil
	}
	return execx.Result{}, nil
}

func TestShouldSkipConfig(t *testing.T) {
	root := newRootCommand()

	configCmd, _, err := root.Find([]string{"config", "new"})
	if err != nil {
		t.Fatalf("find config new: %v", err)
	}
	if !shouldSkipConfig(configCmd) {
		t.Fatal("config new should not require a config file")
	}

	listCmd, _, err := root.Find([]string{"list"})
	if err != nil {
		t.Fatalf("find list: %v", err)
	}
	if shouldSkipConfig(listCmd) {
		t.Fatal("list should load configuration")
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatDuration(nil); got != "unknown" {
		t.Fatalf("formatDuration(nil) = %q", got)
	}
	duration := 250.0
	size := int64(1536)
	meta := &api.MetadataResponse{DurationSeconds: &duration, ByteSize: &size}
	if got := formatDuration(meta); got != "4m10s" {
		t.Fatalf("formatDuration = %q", got)
	}
	if got := formatBytes(meta); got != "1.5 KiB" {
		t.Fatalf("formatBytes = %q", got)
	}
	if got := formatBytes(nil); got != "unknown" {
		t.Fatalf("formatBytes(nil) = %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only-one"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "only-one") {
		t.Fatalf("render output missing cell: %s", out)
	}
}

func TestClientAgainstRouter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	layout := library.NewLayout(cfg.LibraryDir)
	importer := library.NewImporter(st, layout, nil)
	seg := segmenter.New(cfg, st, stubCLIRunner{}, nil)
	dispatcher := segmenter.NewDispatcher(seg, 1, nil)
	t.Cleanup(dispatcher.Shutdown)

	server := httptest.NewServer(api.NewRouter(api.ServerConfig{
		Store:      st,
		Importer:   importer,
		Segmenter:  seg,
		Dispatcher: dispatcher,
		Version:    "test",
		StartTime:  time.Now(),
	}))
	t.Cleanup(server.Close)

	client := newAPIClient(strings.TrimPrefix(server.URL, "http://"))

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("health = %+v", health)
	}

	source := filepath.Join(t.TempDir(), "family_trip.mp4")
	testsupport.WriteFile(t, source, 1<<20)
	asset, err := client.Import(context.Background(), source)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if asset.Title != "Family Trip" {
		t.Fatalf("title = %q", asset.Title)
	}

	assets, err := client.ListAssets(context.Background(), "pending")
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(assets) != 1 || assets[0].ID != asset.ID {
		t.Fatalf("list = %+v", assets)
	}

	if _, err := client.GetAsset(context.Background(), "unknown"); err == nil {
		t.Fatal("expected error for unknown asset")
	}

	if err := client.Remove(context.Background(), asset.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestClientWithoutAddress(t *testing.T) {
	client := newAPIClient("")
	if _, err := client.Health(context.Background()); err == nil {
		t.Fatal("expected error with no daemon address")
	}
}

func TestListCommandOutputEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	layout := library.NewLayout(cfg.LibraryDir)
	seg := segmenter.New(cfg, st, stubCLIRunner{}, nil)
	dispatcher := segmenter.NewDispatcher(seg, 1, nil)
	t.Cleanup(dispatcher.Shutdown)

	server := httptest.NewServer(api.NewRouter(api.ServerConfig{
		Store:      st,
		Importer:   library.NewImporter(st, layout, nil),
		Segmenter:  seg,
		Dispatcher: dispatcher,
	}))
	t.Cleanup(server.Close)

	addr := strings.TrimPrefix(server.URL, "http://")
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"list", "--addr", addr})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v (output %s)", err, out.String())
	}
	if !strings.Contains(out.String(), "No assets found") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}
