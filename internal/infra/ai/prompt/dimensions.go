package prompt

import (
    "fmt"
    "strings"

    "github.com/bryanwahyu/creative-lens/internal/domain/analysis"
)

var dimensionBrief = map[analysis.Dimension]string{
    analysis.DimensionHook:      "how strongly the creative hooks a scrolling viewer in the first moment",
    analysis.DimensionCTA:       "the presence and quality of the call to action",
    analysis.DimensionBrand:     "how well the creative aligns with the shown brand's identity",
    analysis.DimensionThumbStop: "how likely the creative is to stop a feed scroll (thumb-stop power)",
    analysis.DimensionAudio:     "the audio strategy of the ad, judged from metadata only",
}

var dimensionExtras = map[analysis.Dimension]string{
    analysis.DimensionCTA:       `  "cta_detected": <bool>,
  "cta_type": "<button|text-overlay|spoken|end-card|none>",`,
    analysis.DimensionBrand:     `  "logo_detected": <bool>,`,
    analysis.DimensionThumbStop: `  "face_detected": <bool>,`,
}

// Scoring builds the instruction for one dimension scorer. The weight table is
// documented in the instruction so the model's self-reported sub-scores are
// weight-consistent with the locally computed overall.
func Scoring(d analysis.Dimension, asset analysis.AssetRef) string {
    table := analysis.TableFor(d)

    var weights strings.Builder
    var schema strings.Builder
    for _, w := range table {
        fmt.Fprintf(&weights, "- %s: weight %d\n", w.Field, w.Points)
        fmt.Fprintf(&schema, "  %q: <int 0-100>,\n", w.Field)
    }

    extra := dimensionExtras[d]
    if extra != "" {
        extra += "\n"
    }

    return fmt.Sprintf(`You are a senior creative-advertising analyst. Score one dimension of an ad creative: %s.

Dimension: %s
Asset: %s

Sub-scores and their weights (weights sum to 100):
%s
The overall_score must equal the weighted sum of the sub-scores, rounded to the nearest integer.

Respond with one valid JSON object only, no markdown, no commentary:
{
  "overall_score": <int 0-100>,
%s%s  "recommendations": ["<string>", ...],
  "confidence_level": "<high|medium|low>"
}`,
        dimensionBrief[d],
        d,
        describeAsset(asset),
        weights.String(),
        schema.String(),
        extra,
    )
}

func describeAsset(a analysis.AssetRef) string {
    desc := fmt.Sprintf("%s (%s", a.Filename, a.Type)
    if a.Width > 0 && a.Height > 0 {
        desc += fmt.Sprintf(", %dx%d", a.Width, a.Height)
    }
    if a.DurationSec > 0 {
        desc += fmt.Sprintf(", %.1fs", a.DurationSec)
    }
    return desc + ")"
}

// AudioStrategy builds the metadata-only instruction for the audio dimension.
// No raw audio is ever sent; the model reasons from filename, kind and duration.
func AudioStrategy(asset analysis.AssetRef) string {
    table := analysis.TableFor(analysis.DimensionAudio)

    var weights strings.Builder
    var schema strings.Builder
    for _, w := range table {
        fmt.Fprintf(&weights, "- %s: weight %d\n", w.Field, w.Points)
        fmt.Fprintf(&schema, "  %q: <int 0-100>,\n", w.Field)
    }

    return fmt.Sprintf(`You are a senior creative-advertising analyst. Evaluate the likely audio strategy of a video ad from its metadata alone. No audio is provided; reason conservatively from the filename, format and duration.

Dimension: %s
Asset: %s

Sub-scores and their weights (weights sum to 100):
%s
The overall_score must equal the weighted sum of the sub-scores, rounded to the nearest integer.

Respond with one valid JSON object only, no markdown, no commentary:
{
  "overall_score": <int 0-100>,
%s  "recommendations": ["<string>", ...],
  "confidence_level": "<high|medium|low>"
}`,
        analysis.DimensionAudio,
        describeAsset(asset),
        weights.String(),
        schema.String(),
    )
}
