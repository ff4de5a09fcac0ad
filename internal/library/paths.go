package library

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ClipFilePattern is the canonical zero-padded clip filename format.
const ClipFilePattern = "clip_%03d.mp4"

var clipNameRE = regexp.MustCompile(`^clip_(\d{3})\.mp4$`)

// Layout derives the deterministic on-disk locations for an asset. All paths
// are owned by the pipeline; the user's original file is never referenced.
type Layout struct {
	root string
}

// NewLayout returns a Layout rooted at the configured library directory.
func NewLayout(libraryDir string) Layout {
	return Layout{root: strings.TrimSpace(libraryDir)}
}

// AssetDir returns the per-asset directory.
func (l Layout) AssetDir(assetID string) string {
	return filepath.Join(l.root, assetID)
}

// SourcePath returns the owned copy of the original file, preserving its
// extension.
func (l Layout) SourcePath(assetID, ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		ext = ".mp4"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(l.AssetDir(assetID), "source"+ext)
}

// ClipsDir returns the directory holding generated clips for an asset.
func (l Layout) ClipsDir(assetID string) string {
	return filepath.Join(l.AssetDir(assetID), "clips")
}

// ClipPath returns the deterministic output path for a clip index.
func (l Layout) ClipPath(assetID string, index int) string {
	return filepath.Join(l.ClipsDir(assetID), fmt.Sprintf(ClipFilePattern, index))
}

// ParseClipName extracts the clip index from a canonical clip filename.
// Any other name is ignored by the backfill scanner.
func ParseClipName(name string) (int, bool) {
	match := clipNameRE.FindStringSubmatch(name)
	if match == nil {
		return 0, false
	}
	index, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return index, true
}
