package analysis

import (
	"time"
)

// AnalysisID tipe untuk CompositeAnalysis
type AnalysisID string

// MediaKind enum
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Dimension enum: satu sumbu penilaian independen
type Dimension string

const (
	DimensionHook      Dimension = "hook"
	DimensionCTA       Dimension = "cta"
	DimensionBrand     Dimension = "brand_alignment"
	DimensionThumbStop Dimension = "thumb_stop"
	DimensionAudio     Dimension = "audio_strategy"
)

// Confidence enum
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AssetRef snapshot metadata asset; owned by the asset library, read-only here
type AssetRef struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename,omitempty"`
	Type        MediaKind `json:"type"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	DurationSec float64   `json:"duration_sec,omitempty"`
}

// IsVideo true kalau asset video atau punya durasi
func (a AssetRef) IsVideo() bool {
	return a.Type == MediaVideo || a.DurationSec > 0
}

// DimensionScore hasil satu scorer. Created fresh per run, never mutated;
// superseded by the next run for the same asset.
type DimensionScore struct {
	Dimension       Dimension      `json:"dimension"`
	AssetID         string         `json:"asset_id"`
	OverallScore    *int           `json:"overall_score"`
	SubScores       map[string]int `json:"sub_scores"`
	Recommendations []string       `json:"recommendations"`
	ConfidenceLevel Confidence     `json:"confidence_level"`

	// dimension-specific flags
	CTAType      string `json:"cta_type,omitempty"`
	CTADetected  bool   `json:"cta_detected,omitempty"`
	LogoDetected bool   `json:"logo_detected,omitempty"`
	FaceDetected bool   `json:"face_detected,omitempty"`

	// explicit degradation marker so callers and tests can assert on the reason
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`

	// Raw keeps the unparsed model reply for debugging; stripped before persistence
	// when the store hits capacity.
	Raw string `json:"raw,omitempty"`
}

// Range three-point estimate
type Range struct {
	Low      float64 `json:"low"`
	Expected float64 `json:"expected"`
	High     float64 `json:"high"`
}

// PerformancePrediction always computed last; depends on the other scores
type PerformancePrediction struct {
	AssetID             string `json:"asset_id"`
	CTR                 Range  `json:"ctr"`
	CPM                 Range  `json:"cpm"`
	Engagement          Range  `json:"engagement"`
	ConversionPotential string `json:"conversion_potential"`
	Degraded            bool   `json:"degraded,omitempty"`
	DegradedReason      string `json:"degraded_reason,omitempty"`
}

// UnknownBrand sentinel untuk brand yang tidak terdeteksi
const UnknownBrand = "unknown"

// BrandSignal discovered brand identity; embedded in the composite, not persisted standalone
type BrandSignal struct {
	BrandName   string     `json:"brand_name"`
	BrandType   string     `json:"brand_type,omitempty"`
	Industry    string     `json:"industry,omitempty"`
	Website     string     `json:"website,omitempty"`
	LogoVisible bool       `json:"logo_visible"`
	Confidence  Confidence `json:"confidence"`
}

// Known true kalau brand bukan sentinel unknown
func (b *BrandSignal) Known() bool {
	return b != nil && b.BrandName != "" && b.BrandName != UnknownBrand
}

// Aggregate Root: CompositeAnalysis, one per (asset, run)
type CompositeAnalysis struct {
	ID         AnalysisID `json:"id"`
	TenantID   string     `json:"tenant_id"`
	Asset      AssetRef   `json:"asset"`
	AnalyzedAt time.Time  `json:"analyzed_at"`

	// all five dimension slots are always populated, possibly with degraded defaults
	Hook           *DimensionScore `json:"hook"`
	CTA            *DimensionScore `json:"cta"`
	BrandAlignment *DimensionScore `json:"brand_alignment"`
	ThumbStop      *DimensionScore `json:"thumb_stop"`
	AudioStrategy  *DimensionScore `json:"audio_strategy"`

	Prediction *PerformancePrediction `json:"prediction"`
	Brand      *BrandSignal           `json:"brand,omitempty"`

	Confidence   Confidence `json:"confidence"`
	ProcessingMS int64      `json:"processing_ms"`

	LinkedCompanyID string `json:"linked_company_id,omitempty"`
	LinkedProjectID string `json:"linked_project_id,omitempty"`
}

// Scores returns the dimension slots in fixed order.
func (c *CompositeAnalysis) Scores() []*DimensionScore {
	return []*DimensionScore{c.Hook, c.CTA, c.BrandAlignment, c.ThumbStop, c.AudioStrategy}
}

// OverallScore headline score: rounded mean of the available dimension overalls.
func (c *CompositeAnalysis) OverallScore() *int {
	sum, n := 0, 0
	for _, s := range c.Scores() {
		if s != nil && s.OverallScore != nil {
			sum += *s.OverallScore
			n++
		}
	}
	if n == 0 {
		return nil
	}
	v := (sum + n/2) / n
	return &v
}

// DeriveConfidence: high kalau >=3 dari {hook, cta, thumb_stop} punya overall,
// medium kalau 2, sisanya low.
func DeriveConfidence(hook, cta, thumbStop *DimensionScore) Confidence {
	count := 0
	for _, s := range []*DimensionScore{hook, cta, thumbStop} {
		if s != nil && s.OverallScore != nil {
			count++
		}
	}
	switch {
	case count >= 3:
		return ConfidenceHigh
	case count >= 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
