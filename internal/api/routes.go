package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clipforge/internal/logging"
	"clipforge/internal/services"
	"clipforge/internal/store"
)

// NewRouter wires every pipeline operation into the HTTP surface.
func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/api/assets", func(r chi.Router) {
		r.Get("/", listAssetsHandler(cfg))
		r.Post("/", importHandler(cfg))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getAssetHandler(cfg))
			r.Delete("/", deleteAssetHandler(cfg))
			r.Get("/clips", listClipsHandler(cfg))
			r.Get("/job", getJobHandler(cfg))
			r.Post("/approve", approveHandler(cfg))
			r.Post("/reject", rejectHandler(cfg))
			r.Post("/regenerate", regenerateHandler(cfg))
			r.Post("/rescan", rescanHandler(cfg))
		})
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func listAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var statuses []store.AssetStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, ok := store.ParseAssetStatus(raw)
			if !ok {
				WriteError(w, http.StatusBadRequest, "unknown status "+raw, "BAD_REQUEST")
				return
			}
			statuses = append(statuses, status)
		}

		assets, err := cfg.Store.ListAssets(r.Context(), statuses...)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list assets", "INTERNAL_ERROR")
			return
		}
		resp := AssetsResponse{Assets: make([]AssetResponse, len(assets))}
		for i, asset := range assets {
			resp.Assets[i] = AssetToResponse(asset)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func importHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		asset, err := cfg.Importer.Import(r.Context(), req.Path)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, AssetToResponse(asset))
	}
}

func getAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, ok := lookupAsset(w, r, cfg)
		if !ok {
			return
		}

		clips, err := cfg.Store.ClipsByAsset(r.Context(), asset.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list clips", "INTERNAL_ERROR")
			return
		}
		job, err := cfg.Store.JobStateFor(r.Context(), asset.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to read job state", "INTERNAL_ERROR")
			return
		}

		resp := AssetDetailResponse{
			Asset: AssetToResponse(asset),
			Clips: make([]ClipResponse, len(clips)),
			Job:   JobToResponse(job),
		}
		for i, clip := range clips {
			resp.Clips[i] = ClipToResponse(clip)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, ok := lookupAsset(w, r, cfg)
		if !ok {
			return
		}
		clips, err := cfg.Store.ClipsByAsset(r.Context(), asset.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list clips", "INTERNAL_ERROR")
			return
		}
		resp := ClipsResponse{Clips: make([]ClipResponse, len(clips))}
		for i, clip := range clips {
			resp.Clips[i] = ClipToResponse(clip)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, ok := lookupAsset(w, r, cfg)
		if !ok {
			return
		}
		job, err := cfg.Store.JobStateFor(r.Context(), asset.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to read job state", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func approveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, ok := lookupAsset(w, r, cfg)
		if !ok {
			return
		}
		if err := cfg.Store.UpdateAssetStatus(r.Context(), asset.ID, store.StatusApproved); err != nil {
			writeStoreError(w, err)
			return
		}
		cfg.Dispatcher.Submit(cfg.BaseContext, asset.ID)
		WriteJSON(w, http.StatusAccepted, AcceptedResponse{AssetID: asset.ID, Status: string(store.StatusApproved)})
	}
}

func rejectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, ok := lookupAsset(w, r, cfg)
		if !ok {
			return
		}
		if err := cfg.Store.UpdateAssetStatus(r.Context(), asset.ID, store.StatusRejected); err != nil {
			writeStoreError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, AcceptedResponse{AssetID: asset.ID, Status: string(store.StatusRejected)})
	}
}

func regenerateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, ok := lookupAsset(w, r, cfg)
		if !ok {
			return
		}
		if asset.Status != store.StatusApproved {
			WriteError(w, http.StatusConflict, "asset is not approved", "NOT_APPROVED")
			return
		}
		cfg.Dispatcher.Submit(cfg.BaseContext, asset.ID)
		WriteJSON(w, http.StatusAccepted, AcceptedResponse{AssetID: asset.ID, Status: string(asset.Status)})
	}
}

func rescanHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, ok := lookupAsset(w, r, cfg)
		if !ok {
			return
		}
		result, err := cfg.Segmenter.Backfill(r.Context(), asset.ID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, RescanResponse{Scanned: result.Scanned, Upserted: result.Upserted})
	}
}

func deleteAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, ok := lookupAsset(w, r, cfg)
		if !ok {
			return
		}
		if err := cfg.Importer.Delete(r.Context(), asset.ID); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func lookupAsset(w http.ResponseWriter, r *http.Request, cfg ServerConfig) (*store.Asset, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "asset id required", "BAD_REQUEST")
		return nil, false
	}
	asset, err := cfg.Store.GetAsset(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load asset", "INTERNAL_ERROR")
		return nil, false
	}
	if asset == nil {
		WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
		return nil, false
	}
	return asset, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
		return
	}
	WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
}
