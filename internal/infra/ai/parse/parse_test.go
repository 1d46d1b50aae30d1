package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredFencedBlock(t *testing.T) {
	raw := "Here is the analysis:\n```json\n{\"overall_score\": 82, \"confidence_level\": \"high\"}\n```\nHope that helps."
	rec := Structured(raw)

	require.False(t, rec.Fallback)
	v, ok := rec.Int("overall_score")
	require.True(t, ok)
	assert.Equal(t, 82, v)
	c, ok := rec.String("confidence_level")
	require.True(t, ok)
	assert.Equal(t, "high", c)
	assert.Equal(t, raw, rec.Raw)
}

func TestStructuredBareJSON(t *testing.T) {
	rec := Structured(`{"cta_detected": true, "cta_type": "button"}`)

	require.False(t, rec.Fallback)
	b, ok := rec.Bool("cta_detected")
	require.True(t, ok)
	assert.True(t, b)
}

func TestStructuredBraceSubstring(t *testing.T) {
	rec := Structured(`Sure! The result is {"overall_score": 55} as requested.`)

	require.False(t, rec.Fallback)
	v, ok := rec.Int("overall_score")
	require.True(t, ok)
	assert.Equal(t, 55, v)
}

func TestStructuredFallback(t *testing.T) {
	rec := Structured("I could not analyze this image, sorry.")

	assert.True(t, rec.Fallback)
	assert.False(t, rec.Has("overall_score"))
	assert.Equal(t, "I could not analyze this image, sorry.", rec.Raw)
}

func TestIntRoundsFloats(t *testing.T) {
	rec := Structured(`{"score": 79.6}`)
	v, ok := rec.Int("score")
	require.True(t, ok)
	assert.Equal(t, 80, v)
}

func TestStringSliceSkipsNonStrings(t *testing.T) {
	rec := Structured(`{"recommendations": ["add a CTA", 42, "shorten the hook"]}`)
	assert.Equal(t, []string{"add a CTA", "shorten the hook"}, rec.StringSlice("recommendations"))
}

func TestObjectReadsNested(t *testing.T) {
	rec := Structured(`{"ctr": {"low": 0.5, "expected": 1.2, "high": 2.0}}`)
	obj, ok := rec.Object("ctr")
	require.True(t, ok)
	f, ok := obj.Float("expected")
	require.True(t, ok)
	assert.InDelta(t, 1.2, f, 0.001)
}
