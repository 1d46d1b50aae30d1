package assets

import (
	"time"

	"github.com/bryanwahyu/creative-lens/internal/domain/analysis"
)

// AssetID identifier type
type AssetID string

// Asset creative asset metadata; binaries live in object storage
type Asset struct {
	ID          AssetID            `json:"id"`
	TenantID    string             `json:"tenant_id"`
	Filename    string             `json:"filename"`
	Kind        analysis.MediaKind `json:"kind"`
	Width       int                `json:"width,omitempty"`
	Height      int                `json:"height,omitempty"`
	DurationSec float64            `json:"duration_sec,omitempty"`
	URL         string             `json:"url,omitempty"`
	SizeBytes   int64              `json:"size_bytes,omitempty"`
	UploadedAt  time.Time          `json:"uploaded_at"`
}

// Ref converts to the read-only snapshot the analysis core consumes.
func (a *Asset) Ref() analysis.AssetRef {
	return analysis.AssetRef{
		ID:          string(a.ID),
		Filename:    a.Filename,
		Type:        a.Kind,
		Width:       a.Width,
		Height:      a.Height,
		DurationSec: a.DurationSec,
	}
}
