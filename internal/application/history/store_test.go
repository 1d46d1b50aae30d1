package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/creative-lens/internal/application"
	"github.com/bryanwahyu/creative-lens/internal/domain/analysis"
	"github.com/bryanwahyu/creative-lens/internal/infra/kv"
)

const tenant = "studio-a"

func newStore(backing *kv.MemoryKV) *Store {
	return &Store{KV: backing, Clock: application.FixedClock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}}
}

func sample(assetID string, overall int, raw string) *analysis.CompositeAnalysis {
	v := overall
	return &analysis.CompositeAnalysis{
		ID:       analysis.AnalysisID("an-" + assetID),
		TenantID: tenant,
		Asset:    analysis.AssetRef{ID: assetID, Type: analysis.MediaImage},
		Hook:     &analysis.DimensionScore{Dimension: analysis.DimensionHook, AssetID: assetID, OverallScore: &v, Raw: raw},
	}
}

func TestSaveCurrentRoundTrip(t *testing.T) {
	s := newStore(kv.NewMemoryKV(0))
	ctx := context.Background()

	require.NoError(t, s.SaveCurrent(ctx, tenant, sample("a1", 80, "")))
	got, err := s.Current(ctx, tenant)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, analysis.AnalysisID("an-a1"), got.ID)

	// empty slot reads back nil, not an error
	got, err = s.Current(ctx, "other-tenant")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAppendHeadInsertAndDedup(t *testing.T) {
	s := newStore(kv.NewMemoryKV(0))
	ctx := context.Background()

	require.True(t, s.Append(ctx, tenant, sample("a1", 60, "")).Persisted)
	require.True(t, s.Append(ctx, tenant, sample("a2", 70, "")).Persisted)
	// re-analysis of a1 replaces the old entry instead of duplicating it
	require.True(t, s.Append(ctx, tenant, sample("a1", 90, "")).Persisted)

	entries, err := s.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a1", entries[0].AssetID)
	assert.Equal(t, "a2", entries[1].AssetID)
	require.NotNil(t, entries[0].Analysis.Hook.OverallScore)
	assert.Equal(t, 90, *entries[0].Analysis.Hook.OverallScore)
}

func TestAppendEnforcesCap(t *testing.T) {
	s := newStore(kv.NewMemoryKV(0))
	s.MaxEntries = 3
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.True(t, s.Append(ctx, tenant, sample(fmt.Sprintf("a%d", i), 50, "")).Persisted)
	}

	entries, err := s.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a4", entries[0].AssetID)
	assert.Equal(t, "a2", entries[2].AssetID)
}

func TestAppendStripsRawOnCapacity(t *testing.T) {
	// quota sized so the full payload with raw replies overflows but the
	// stripped version fits
	s := newStore(kv.NewMemoryKV(4096))
	ctx := context.Background()

	big := sample("a1", 80, string(make([]byte, 8192)))
	report := s.Append(ctx, tenant, big)
	require.True(t, report.Persisted)
	assert.Equal(t, "stripped", report.Degradation)

	entries, err := s.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Analysis.Hook.Raw)

	// the caller's in-memory copy keeps its raw reply
	assert.NotEmpty(t, big.Hook.Raw)
}

func TestAppendAbandonsWhenNothingFits(t *testing.T) {
	s := newStore(kv.NewMemoryKV(16))
	ctx := context.Background()

	report := s.Append(ctx, tenant, sample("a1", 80, ""))
	assert.False(t, report.Persisted)
	assert.Equal(t, "abandoned after clear", report.Degradation)
}

func TestClear(t *testing.T) {
	backing := kv.NewMemoryKV(0)
	s := newStore(backing)
	ctx := context.Background()

	require.NoError(t, s.SaveCurrent(ctx, tenant, sample("a1", 80, "")))
	require.True(t, s.Append(ctx, tenant, sample("a1", 80, "")).Persisted)

	require.NoError(t, s.Clear(ctx, tenant))
	assert.Equal(t, 0, backing.Len())

	entries, err := s.List(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompareVersions(t *testing.T) {
	s := newStore(kv.NewMemoryKV(0))
	ctx := context.Background()

	// single version: nothing to compare
	require.True(t, s.Append(ctx, tenant, sample("a1", 60, "")).Persisted)
	cmp, err := s.CompareVersions(ctx, tenant, "a1")
	require.NoError(t, err)
	assert.Nil(t, cmp)

	// second run archives the first and diffs against it
	require.True(t, s.Append(ctx, tenant, sample("a1", 75, "")).Persisted)
	cmp, err = s.CompareVersions(ctx, tenant, "a1")
	require.NoError(t, err)
	require.NotNil(t, cmp)
	assert.Equal(t, 60, cmp.PreviousScore)
	assert.Equal(t, 75, cmp.CurrentScore)
	assert.Equal(t, 15, cmp.ScoreDelta)
	assert.Equal(t, "improved", cmp.Trend)

	// third run compares against the second, not the first
	require.True(t, s.Append(ctx, tenant, sample("a1", 70, "")).Persisted)
	cmp, err = s.CompareVersions(ctx, tenant, "a1")
	require.NoError(t, err)
	require.NotNil(t, cmp)
	assert.Equal(t, 75, cmp.PreviousScore)
	assert.Equal(t, "declined", cmp.Trend)
}

func TestCompareVersionsNoUsableScore(t *testing.T) {
	s := newStore(kv.NewMemoryKV(0))
	ctx := context.Background()

	degraded := &analysis.CompositeAnalysis{
		ID:    "an-x",
		Asset: analysis.AssetRef{ID: "a1"},
		Hook:  &analysis.DimensionScore{Degraded: true},
	}
	require.True(t, s.Append(ctx, tenant, degraded).Persisted)
	require.True(t, s.Append(ctx, tenant, sample("a1", 75, "")).Persisted)

	cmp, err := s.CompareVersions(ctx, tenant, "a1")
	require.NoError(t, err)
	assert.Nil(t, cmp)
}

func TestSweepRemovesOldEntries(t *testing.T) {
	backing := kv.NewMemoryKV(0)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	old := &Store{KV: backing, Clock: application.FixedClock{T: now.Add(-100 * 24 * time.Hour)}}
	require.True(t, old.Append(context.Background(), tenant, sample("stale", 50, "")).Persisted)

	fresh := &Store{KV: backing, Clock: application.FixedClock{T: now}}
	require.True(t, fresh.Append(context.Background(), tenant, sample("live", 80, "")).Persisted)

	removed, err := fresh.Sweep(context.Background(), tenant, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := fresh.List(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "live", entries[0].AssetID)
}
