package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/bryanwahyu/creative-lens/internal/domain/analysis"
)

// Prediction builds the text-reasoning instruction for the performance
// predictor. Scores map uses null for dimensions whose scorer degraded.
func Prediction(asset analysis.AssetRef, scores map[string]*int) string {
	ctxJSON, err := json.Marshal(scores)
	if err != nil {
		ctxJSON = []byte("{}")
	}

	return fmt.Sprintf(`You are a media-buying analyst. Predict paid-social performance ranges for an ad creative based on its dimension scores. A null score means that dimension could not be analyzed; be conservative where data is missing.

Asset: %s
Dimension scores (0-100 or null): %s

Respond with one valid JSON object only, no markdown, no commentary:
{
  "ctr": {"low": <float %%>, "expected": <float %%>, "high": <float %%>},
  "cpm": {"low": <float USD>, "expected": <float USD>, "high": <float USD>},
  "engagement": {"low": <float %%>, "expected": <float %%>, "high": <float %%>},
  "conversion_potential": "<high|moderate|low>"
}`, describeAsset(asset), ctxJSON)
}
