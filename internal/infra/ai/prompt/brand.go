package prompt

import (
	"fmt"

	"github.com/bryanwahyu/creative-lens/internal/domain/analysis"
)

// BrandDiscovery builds the vision instruction that infers which brand appears
// in the creative. Uses the "unknown" sentinel rather than guessing.
func BrandDiscovery(asset analysis.AssetRef) string {
	return fmt.Sprintf(`You are a brand-recognition analyst. Identify the brand shown in this ad creative.

Asset: %s

Rules:
- If you cannot identify the brand with reasonable certainty, set brand_name to "unknown". Never invent a brand.
- website may be a bare domain; leave it empty when unsure.

Respond with one valid JSON object only, no markdown, no commentary:
{
  "brand_name": "<string or \"unknown\">",
  "brand_type": "<b2c|b2b|d2c|marketplace|unknown>",
  "industry": "<string>",
  "website": "<string>",
  "logo_visible": <bool>,
  "confidence": "<high|medium|low>"
}`, describeAsset(asset))
}
