package analysis

import "math"

// Weight satu sub-score berbobot
type Weight struct {
	Field  string
	Points int
}

// WeightTable bobot sub-score untuk satu dimensi; total selalu 100
type WeightTable []Weight

// weight tables per dimension. These are part of the scoring contract: the same
// table is embedded in the model instruction so self-reported sub-scores stay
// weight-consistent.
var weightTables = map[Dimension]WeightTable{
	DimensionHook: {
		{Field: "attention_grab", Points: 40},
		{Field: "message_clarity", Points: 30},
		{Field: "visual_impact", Points: 30},
	},
	DimensionCTA: {
		{Field: "visibility", Points: 35},
		{Field: "clarity", Points: 35},
		{Field: "urgency", Points: 30},
	},
	DimensionBrand: {
		{Field: "logo_presence", Points: 40},
		{Field: "color_harmony", Points: 30},
		{Field: "tone_consistency", Points: 30},
	},
	DimensionThumbStop: {
		{Field: "first_impression", Points: 40},
		{Field: "color_contrast", Points: 35},
		{Field: "face_presence", Points: 25},
	},
	DimensionAudio: {
		{Field: "hook_sync", Points: 40},
		{Field: "pacing", Points: 30},
		{Field: "clarity", Points: 30},
	},
}

// TableFor returns the weight table for a dimension.
func TableFor(d Dimension) WeightTable {
	return weightTables[d]
}

// AllDimensions in scoring order.
func AllDimensions() []Dimension {
	return []Dimension{DimensionHook, DimensionCTA, DimensionBrand, DimensionThumbStop, DimensionAudio}
}

// Fields daftar nama sub-score
func (t WeightTable) Fields() []string {
	out := make([]string, 0, len(t))
	for _, w := range t {
		out = append(out, w.Field)
	}
	return out
}

// Overall computes round(sum(weight_i * subscore_i) / 100). Returns false when
// any weighted sub-score is missing; the caller then degrades instead of guessing.
func (t WeightTable) Overall(subScores map[string]int) (int, bool) {
	if len(t) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, w := range t {
		v, ok := subScores[w.Field]
		if !ok {
			return 0, false
		}
		sum += float64(w.Points) * float64(v)
	}
	return int(math.Round(sum / 100.0)), true
}
