package history

import (
	"time"

	"github.com/bryanwahyu/creative-lens/internal/domain/analysis"
)

// Entry satu analisa tersimpan; asset id dipakai sebagai dedup key
type Entry struct {
	AssetID  string                      `json:"asset_id"`
	Analysis *analysis.CompositeAnalysis `json:"analysis"`
	SavedAt  time.Time                   `json:"saved_at"`
}

// Comparison hasil compare dua versi analisa untuk asset yang sama
type Comparison struct {
	AssetID       string `json:"asset_id"`
	ScoreDelta    int    `json:"score_delta"`
	PreviousScore int    `json:"previous_score"`
	CurrentScore  int    `json:"current_score"`
	Trend         string `json:"trend"` // improved | declined | stable
}
