package store

import (
	"strings"
	"time"

	"clipforge/internal/media"
)

// AssetStatus represents the review state of a media asset.
type AssetStatus string

const (
	StatusPending  AssetStatus = "pending"
	StatusApproved AssetStatus = "approved"
	StatusRejected AssetStatus = "rejected"
)

var assetStatusSet = map[AssetStatus]struct{}{
	StatusPending:  {},
	StatusApproved: {},
	StatusRejected: {},
}

// ParseAssetStatus converts a string into a known AssetStatus.
func ParseAssetStatus(value string) (AssetStatus, bool) {
	normalized := AssetStatus(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := assetStatusSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// JobStateValue represents the clip generation state machine for one asset.
type JobStateValue string

const (
	JobNotStarted JobStateValue = "not_started"
	JobGenerating JobStateValue = "generating"
	JobDone       JobStateValue = "done"
	JobFailed     JobStateValue = "failed"
)

// Asset is a source video tracked by the pipeline. SourcePath always points
// at the owned copy inside the library, never the user's original file.
type Asset struct {
	ID           string
	Title        string
	SourcePath   string
	Status       AssetStatus
	Metadata     *media.Metadata
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clip is one generated segment of an asset, keyed by (asset_id, index).
// Metadata fields are independently nullable because extraction can
// partially fail.
type Clip struct {
	AssetID         string
	Index           int
	Path            string
	DurationSeconds *float64
	FrameRate       *float64
	Width           *int
	Height          *int
	ByteSize        *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// JobState is the per-asset generation record. Each write overwrites the
// previous record; UpdatedAt doubles as the staleness heartbeat.
type JobState struct {
	AssetID       string
	State         JobStateValue
	LastErrorText string
	LastExitCode  *int
	UpdatedAt     time.Time
}

// HasRotation reports whether the asset carries a display rotation hint.
func (a *Asset) HasRotation() bool {
	return a != nil && a.Metadata != nil && a.Metadata.RotationRaw != nil
}
