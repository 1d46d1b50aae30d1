package analysis

import (
	"context"
	"fmt"

	domai "github.com/bryanwahyu/creative-lens/internal/domain/ai"
	domain "github.com/bryanwahyu/creative-lens/internal/domain/analysis"
	"github.com/bryanwahyu/creative-lens/internal/infra/ai/gateway"
	"github.com/bryanwahyu/creative-lens/internal/infra/ai/parse"
	"github.com/bryanwahyu/creative-lens/internal/infra/ai/prompt"
)

// Scorers issues one Gateway call per dimension and shapes the typed record.
// Every failure path degrades in place; nothing here returns an error upward.
type Scorers struct {
	Gateway *gateway.Gateway
}

// Score runs one dimension scorer. Audio strategy reasons over metadata only
// (text capability, no image); everything else is a vision call.
func (s *Scorers) Score(ctx context.Context, d domain.Dimension, asset domain.AssetRef, image *domai.ImagePayload) *domain.DimensionScore {
	capability := domai.CapabilityVisionScoring
	instruction := prompt.Scoring(d, asset)
	if d == domain.DimensionAudio {
		capability = domai.CapabilityTextReasoning
		instruction = prompt.AudioStrategy(asset)
		image = nil
	}

	raw, err := s.Gateway.Invoke(ctx, capability, instruction, image)
	if err != nil {
		return DegradedScore(d, asset.ID, err.Error())
	}

	rec := parse.Structured(raw)
	if rec.Fallback {
		sc := DegradedScore(d, asset.ID, "model reply had no structured content")
		sc.Raw = raw
		return sc
	}

	table := domain.TableFor(d)
	subScores := make(map[string]int, len(table))
	complete := true
	for _, w := range table {
		v, ok := rec.Int(w.Field)
		if !ok {
			complete = false
			continue
		}
		subScores[w.Field] = clampScore(v)
	}

	var overall *int
	if v, ok := rec.Int("overall_score"); ok {
		// model supplied it: trusted as-is
		c := clampScore(v)
		overall = &c
	} else if complete {
		if v, ok := table.Overall(subScores); ok {
			overall = &v
		}
	}
	if overall == nil {
		sc := DegradedScore(d, asset.ID, "model reply missing overall score and sub-scores")
		sc.Raw = raw
		return sc
	}

	score := &domain.DimensionScore{
		Dimension:       d,
		AssetID:         asset.ID,
		OverallScore:    overall,
		SubScores:       subScores,
		Recommendations: rec.StringSlice("recommendations"),
		ConfidenceLevel: confidenceOrDefault(rec),
	}

	switch d {
	case domain.DimensionCTA:
		score.CTAType, _ = rec.String("cta_type")
		score.CTADetected, _ = rec.Bool("cta_detected")
	case domain.DimensionBrand:
		score.LogoDetected, _ = rec.Bool("logo_detected")
	case domain.DimensionThumbStop:
		score.FaceDetected, _ = rec.Bool("face_detected")
	}

	return score
}

// DiscoverBrand runs the dedicated brand-identification vision call.
// On any failure it yields the unknown sentinel, never an error.
func (s *Scorers) DiscoverBrand(ctx context.Context, asset domain.AssetRef, image *domai.ImagePayload) *domain.BrandSignal {
	unknown := &domain.BrandSignal{BrandName: domain.UnknownBrand, Confidence: domain.ConfidenceLow}

	raw, err := s.Gateway.Invoke(ctx, domai.CapabilityVisionScoring, prompt.BrandDiscovery(asset), image)
	if err != nil {
		return unknown
	}
	rec := parse.Structured(raw)
	if rec.Fallback {
		return unknown
	}

	name, ok := rec.String("brand_name")
	if !ok || name == "" {
		return unknown
	}

	sig := &domain.BrandSignal{BrandName: name, Confidence: confidenceOrDefault(rec)}
	sig.BrandType, _ = rec.String("brand_type")
	sig.Industry, _ = rec.String("industry")
	sig.Website, _ = rec.String("website")
	sig.LogoVisible, _ = rec.Bool("logo_visible")
	if c, ok := rec.String("confidence"); ok {
		sig.Confidence = parseConfidence(c)
	}
	return sig
}

// Predict runs the performance predictor over the settled scores. Missing
// dimensions are passed as nulls so the model stays conservative.
func (s *Scorers) Predict(ctx context.Context, asset domain.AssetRef, scores map[string]*int) *domain.PerformancePrediction {
	raw, err := s.Gateway.Invoke(ctx, domai.CapabilityTextReasoning, prompt.Prediction(asset, scores), nil)
	if err != nil {
		return degradedPrediction(asset.ID, err.Error())
	}
	rec := parse.Structured(raw)
	if rec.Fallback {
		return degradedPrediction(asset.ID, "model reply had no structured content")
	}

	pred := &domain.PerformancePrediction{AssetID: asset.ID}
	pred.CTR = rangeField(rec, "ctr")
	pred.CPM = rangeField(rec, "cpm")
	pred.Engagement = rangeField(rec, "engagement")
	if v, ok := rec.String("conversion_potential"); ok {
		pred.ConversionPotential = v
	} else {
		pred.ConversionPotential = "moderate"
	}
	return pred
}

// DegradedScore is the fallback record of a failed scorer: zeroed sub-scores,
// low confidence, one retry recommendation. Exposed for the coordinator's
// not-applicable audio slot and for tests.
func DegradedScore(d domain.Dimension, assetID, reason string) *domain.DimensionScore {
	table := domain.TableFor(d)
	subScores := make(map[string]int, len(table))
	for _, w := range table {
		subScores[w.Field] = 0
	}
	return &domain.DimensionScore{
		Dimension:       d,
		AssetID:         assetID,
		OverallScore:    nil,
		SubScores:       subScores,
		Recommendations: []string{fmt.Sprintf("%s analysis failed, please retry", d)},
		ConfidenceLevel: domain.ConfidenceLow,
		Degraded:        true,
		DegradedReason:  reason,
	}
}

func degradedPrediction(assetID, reason string) *domain.PerformancePrediction {
	return &domain.PerformancePrediction{
		AssetID:             assetID,
		ConversionPotential: "unknown",
		Degraded:            true,
		DegradedReason:      reason,
	}
}

func rangeField(rec parse.Record, key string) domain.Range {
	obj, ok := rec.Object(key)
	if !ok {
		return domain.Range{}
	}
	var r domain.Range
	r.Low, _ = obj.Float("low")
	r.Expected, _ = obj.Float("expected")
	r.High, _ = obj.Float("high")
	return r
}

func confidenceOrDefault(rec parse.Record) domain.Confidence {
	if c, ok := rec.String("confidence_level"); ok {
		return parseConfidence(c)
	}
	return domain.ConfidenceMedium
}

func parseConfidence(s string) domain.Confidence {
	switch domain.Confidence(s) {
	case domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow:
		return domain.Confidence(s)
	default:
		return domain.ConfidenceMedium
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
