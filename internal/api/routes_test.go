package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipforge/internal/api"
	"clipforge/internal/config"
	"clipforge/internal/execx"
	"clipforge/internal/library"
	"clipforge/internal/segmenter"
	"clipforge/internal/store"
	"clipforge/internal/testsupport"
)

// stubRunner answers probes with a short fixed-duration video and writes
// transcode outputs large enough to count as complete.
type stubRunner struct{}

func (stubRunner) Run(_ context.Context, binary string, args []string, _ time.Duration) (execx.Result, error) {
	if binary == "ffprobe" {
		return execx.Result{Stdout: `{
  "streams": [{"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720, "avg_frame_rate": "30/1"}],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "90.0"}
}`}, nil
	}
	output := args[len(args)-1]
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return execx.Result{}, err
	}
	return execx.Result{}, os.WriteFile(output, make([]byte, 4096), 0o644)
}

type testEnv struct {
	cfg        *config.Config
	store      *store.Store
	importer   *library.Importer
	dispatcher *segmenter.Dispatcher
	router     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	layout := library.NewLayout(cfg.LibraryDir)
	importer := library.NewImporter(st, layout, nil)
	seg := segmenter.New(cfg, st, stubRunner{}, nil)
	dispatcher := segmenter.NewDispatcher(seg, 1, nil)
	t.Cleanup(dispatcher.Shutdown)

	router := api.NewRouter(api.ServerConfig{
		Bind:        cfg.APIBind,
		Version:     "test",
		Store:       st,
		Importer:    importer,
		Segmenter:   seg,
		Dispatcher:  dispatcher,
		Logger:      nil,
		StartTime:   time.Now(),
		BaseContext: context.Background(),
	})
	return &testEnv{cfg: cfg, store: st, importer: importer, dispatcher: dispatcher, router: router}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) importAsset(t *testing.T) api.AssetResponse {
	t.Helper()

	source := filepath.Join(t.TempDir(), "test_video.mp4")
	testsupport.WriteFile(t, source, 1<<20)

	rec := e.do(t, http.MethodPost, "/api/assets", api.ImportRequest{Path: source})
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}
	var asset api.AssetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &asset); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	return asset
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp api.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Fatalf("health = %+v", resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}

func TestImportValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/assets", api.ImportRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty path status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/assets", api.ImportRequest{Path: "/no/such/file.mp4"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing file status = %d", rec.Code)
	}
}

func TestImportListGet(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t)
	if asset.Status != string(store.StatusPending) {
		t.Fatalf("imported status = %s", asset.Status)
	}
	if asset.Title != "Test Video" {
		t.Fatalf("title = %q", asset.Title)
	}

	rec := env.do(t, http.MethodGet, "/api/assets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list api.AssetsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Assets) != 1 || list.Assets[0].ID != asset.ID {
		t.Fatalf("list = %+v", list)
	}

	rec = env.do(t, http.MethodGet, "/api/assets?status=approved", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode filtered list: %v", err)
	}
	if len(list.Assets) != 0 {
		t.Fatalf("approved filter returned %d assets", len(list.Assets))
	}

	rec = env.do(t, http.MethodGet, "/api/assets?status=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus status filter = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/assets/"+asset.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var detail api.AssetDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Job == nil || detail.Job.State != string(store.JobNotStarted) {
		t.Fatalf("fresh asset job = %+v", detail.Job)
	}

	rec = env.do(t, http.MethodGet, "/api/assets/unknown", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown asset status = %d", rec.Code)
	}
}

func TestApproveTriggersGeneration(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/assets/%s/approve", asset.ID), nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("approve status = %d: %s", rec.Code, rec.Body.String())
	}

	// Shutdown waits for the submitted run to complete.
	env.dispatcher.Shutdown()

	job, err := env.store.JobStateFor(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("JobStateFor: %v", err)
	}
	if job == nil || job.State != store.JobDone {
		t.Fatalf("job after approve = %+v", job)
	}
	count, err := env.store.ClipCount(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("ClipCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("clip count = %d, want 1 for a 90s source", count)
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/assets/%s/clips", asset.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clips status = %d", rec.Code)
	}
	var clips api.ClipsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &clips); err != nil {
		t.Fatalf("decode clips: %v", err)
	}
	if len(clips.Clips) != 1 || clips.Clips[0].Index != 0 {
		t.Fatalf("clips = %+v", clips)
	}
}

func TestRejectAndRegenerateConflict(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/assets/%s/reject", asset.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/assets/%s/regenerate", asset.ID), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("regenerate on rejected asset status = %d", rec.Code)
	}
}

func TestRescanReportsBackfill(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t)

	layout := library.NewLayout(env.cfg.LibraryDir)
	testsupport.WriteFile(t, layout.ClipPath(asset.ID, 0), 8192)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/assets/%s/rescan", asset.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rescan status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp api.RescanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode rescan: %v", err)
	}
	if resp.Scanned != 1 || resp.Upserted != 1 {
		t.Fatalf("rescan = %+v", resp)
	}
}

func TestDeleteAsset(t *testing.T) {
	env := newTestEnv(t)
	asset := env.importAsset(t)

	rec := env.do(t, http.MethodDelete, "/api/assets/"+asset.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/assets/"+asset.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}
