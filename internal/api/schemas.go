package api

import (
	"time"

	"clipforge/internal/store"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ImportRequest struct {
	Path string `json:"path"`
}

type AssetResponse struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	SourcePath      string            `json:"source_path"`
	Status          string            `json:"status"`
	Metadata        *MetadataResponse `json:"metadata,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	CreatedAt       string            `json:"created_at"`
	UpdatedAt       string            `json:"updated_at"`
}

type MetadataResponse struct {
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	FrameRate       *float64 `json:"frame_rate,omitempty"`
	Width           *int     `json:"width,omitempty"`
	Height          *int     `json:"height,omitempty"`
	AspectRatio     *string  `json:"aspect_ratio,omitempty"`
	RotationRaw     *string  `json:"rotation,omitempty"`
	CodecName       *string  `json:"codec_name,omitempty"`
	ContainerFormat *string  `json:"container_format,omitempty"`
	ByteSize        *int64   `json:"byte_size,omitempty"`
}

type AssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type ClipsResponse struct {
	Clips []ClipResponse `json:"clips"`
}

type AssetDetailResponse struct {
	Asset AssetResponse  `json:"asset"`
	Clips []ClipResponse `json:"clips"`
	Job   *JobResponse   `json:"job,omitempty"`
}

type ClipResponse struct {
	Index           int      `json:"index"`
	Path            string   `json:"path"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
	FrameRate       *float64 `json:"frame_rate,omitempty"`
	Width           *int     `json:"width,omitempty"`
	Height          *int     `json:"height,omitempty"`
	ByteSize        *int64   `json:"byte_size,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

type JobResponse struct {
	State     string `json:"state"`
	ErrorText string `json:"error_text,omitempty"`
	ExitCode  *int   `json:"exit_code,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

type RescanResponse struct {
	Scanned  int `json:"scanned"`
	Upserted int `json:"upserted"`
}

type AcceptedResponse struct {
	AssetID string `json:"asset_id"`
	Status  string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func AssetToResponse(a *store.Asset) AssetResponse {
	resp := AssetResponse{
		ID:           a.ID,
		Title:        a.Title,
		SourcePath:   a.SourcePath,
		Status:       string(a.Status),
		ErrorMessage: a.ErrorMessage,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
	}
	if a.Metadata != nil {
		resp.Metadata = &MetadataResponse{
			DurationSeconds: a.Metadata.DurationSeconds,
			FrameRate:       a.Metadata.FrameRate,
			Width:           a.Metadata.Width,
			Height:          a.Metadata.Height,
			AspectRatio:     a.Metadata.AspectRatio,
			RotationRaw:     a.Metadata.RotationRaw,
			CodecName:       a.Metadata.CodecName,
			ContainerFormat: a.Metadata.ContainerFormat,
			ByteSize:        a.Metadata.ByteSize,
		}
	}
	return resp
}

func ClipToResponse(c *store.Clip) ClipResponse {
	return ClipResponse{
		Index:           c.Index,
		Path:            c.Path,
		DurationSeconds: c.DurationSeconds,
		FrameRate:       c.FrameRate,
		Width:           c.Width,
		Height:          c.Height,
		ByteSize:        c.ByteSize,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *store.JobState) *JobResponse {
	if j == nil {
		return &JobResponse{State: string(store.JobNotStarted)}
	}
	return &JobResponse{
		State:     string(j.State),
		ErrorText: j.LastErrorText,
		ExitCode:  j.LastExitCode,
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}
