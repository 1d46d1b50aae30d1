package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/creative-lens/internal/application"
	appcrm "github.com/bryanwahyu/creative-lens/internal/application/crm"
	apphistory "github.com/bryanwahyu/creative-lens/internal/application/history"
	domai "github.com/bryanwahyu/creative-lens/internal/domain/ai"
	domain "github.com/bryanwahyu/creative-lens/internal/domain/analysis"
	domcrm "github.com/bryanwahyu/creative-lens/internal/domain/crm"
	"github.com/bryanwahyu/creative-lens/internal/infra/ai/gateway"
	"github.com/bryanwahyu/creative-lens/internal/infra/kv"
)

// scriptedProvider answers by matching a substring of the instruction text.
// Safe for the concurrent fan-out in RunComprehensive: replies are read-only.
type scriptedProvider struct {
	replies map[string]string // instruction substring -> reply
}

func (p *scriptedProvider) Name() string                     { return "scripted" }
func (p *scriptedProvider) Supports(domai.Capability) bool   { return true }
func (p *scriptedProvider) Call(_ context.Context, instruction string, _ *domai.ImagePayload) (string, error) {
	for marker, reply := range p.replies {
		if strings.Contains(instruction, marker) {
			return reply, nil
		}
	}
	return "", fmt.Errorf("no scripted reply for instruction")
}

func scoreReply(table domain.WeightTable, overall int) string {
	var b strings.Builder
	b.WriteString("{")
	fmt.Fprintf(&b, "%q: %d", "overall_score", overall)
	for _, w := range table {
		fmt.Fprintf(&b, ", %q: %d", w.Field, overall)
	}
	b.WriteString(`, "recommendations": ["tighten the first second"], "confidence_level": "high"}`)
	return b.String()
}

func fullReplies() map[string]string {
	return map[string]string{
		"Dimension: hook\n":           scoreReply(domain.TableFor(domain.DimensionHook), 80),
		"Dimension: cta\n":            scoreReply(domain.TableFor(domain.DimensionCTA), 75),
		"Dimension: brand_alignment":  scoreReply(domain.TableFor(domain.DimensionBrand), 90),
		"Dimension: thumb_stop":       scoreReply(domain.TableFor(domain.DimensionThumbStop), 60),
		"Dimension: audio_strategy":   scoreReply(domain.TableFor(domain.DimensionAudio), 70),
		"brand-recognition analyst":   `{"brand_name": "Acme", "brand_type": "b2c", "industry": "Footwear", "website": "acme.com", "logo_visible": true, "confidence": "high"}`,
		"media-buying analyst":        `{"ctr": {"low": 0.8, "expected": 1.4, "high": 2.1}, "cpm": {"low": 4, "expected": 7, "high": 11}, "engagement": {"low": 1, "expected": 2, "high": 4}, "conversion_potential": "high"}`,
	}
}

func newService(provider domai.Provider, store *apphistory.Store, linker *appcrm.Linker) *Service {
	var gw *gateway.Gateway
	if provider != nil {
		gw = gateway.New(provider)
	} else {
		gw = gateway.New()
	}
	return &Service{
		Scorers: &Scorers{Gateway: gw},
		History: store,
		Linker:  linker,
		Clock:   application.FixedClock{T: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
}

func imageAsset(id string) domain.AssetRef {
	return domain.AssetRef{ID: id, Filename: id + ".jpg", Type: domain.MediaImage, Width: 1080, Height: 1080}
}

func payload() *domai.ImagePayload {
	return &domai.ImagePayload{Base64: "aGVsbG8=", MimeType: "image/jpeg"}
}

func TestRunComprehensiveImage(t *testing.T) {
	store := &apphistory.Store{KV: kv.NewMemoryKV(0), Clock: application.FixedClock{T: time.Now()}}
	svc := newService(&scriptedProvider{replies: fullReplies()}, store, nil)

	comp, err := svc.RunComprehensive(context.Background(), "acme-agency", imageAsset("a1"), payload())
	require.NoError(t, err)

	// all five slots populated even on a still image
	for _, sc := range comp.Scores() {
		require.NotNil(t, sc)
	}
	require.NotNil(t, comp.Hook.OverallScore)
	assert.Equal(t, 80, *comp.Hook.OverallScore)
	assert.Equal(t, 75, *comp.CTA.OverallScore)
	assert.Equal(t, 90, *comp.BrandAlignment.OverallScore)
	assert.Equal(t, 60, *comp.ThumbStop.OverallScore)

	// audio is not applicable to a still image, slot degrades explicitly
	assert.True(t, comp.AudioStrategy.Degraded)
	assert.Nil(t, comp.AudioStrategy.OverallScore)

	assert.Equal(t, domain.ConfidenceHigh, comp.Confidence)
	require.NotNil(t, comp.OverallScore())
	assert.Equal(t, 76, *comp.OverallScore())

	require.NotNil(t, comp.Prediction)
	assert.False(t, comp.Prediction.Degraded)
	assert.InDelta(t, 1.4, comp.Prediction.CTR.Expected, 0.001)

	require.NotNil(t, comp.Brand)
	assert.Equal(t, "Acme", comp.Brand.BrandName)

	assert.NotEmpty(t, comp.ID)
	assert.GreaterOrEqual(t, comp.ProcessingMS, int64(0))

	// persisted at the head of history and in the current slot
	entries, err := store.List(context.Background(), "acme-agency")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a1", entries[0].AssetID)

	current, err := store.Current(context.Background(), "acme-agency")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, comp.ID, current.ID)
}

func TestRunComprehensiveVideoScoresAudio(t *testing.T) {
	store := &apphistory.Store{KV: kv.NewMemoryKV(0), Clock: application.FixedClock{T: time.Now()}}
	svc := newService(&scriptedProvider{replies: fullReplies()}, store, nil)

	asset := domain.AssetRef{ID: "v1", Filename: "v1.mp4", Type: domain.MediaVideo, DurationSec: 15}
	comp, err := svc.RunComprehensive(context.Background(), "acme-agency", asset, payload())
	require.NoError(t, err)

	require.NotNil(t, comp.AudioStrategy)
	assert.False(t, comp.AudioStrategy.Degraded)
	require.NotNil(t, comp.AudioStrategy.OverallScore)
	assert.Equal(t, 70, *comp.AudioStrategy.OverallScore)
}

func TestRunComprehensiveNoProviderDegradesEverything(t *testing.T) {
	store := &apphistory.Store{KV: kv.NewMemoryKV(0), Clock: application.FixedClock{T: time.Now()}}
	svc := newService(nil, store, nil)

	comp, err := svc.RunComprehensive(context.Background(), "acme-agency", imageAsset("a2"), payload())
	require.NoError(t, err)

	for _, sc := range comp.Scores() {
		require.NotNil(t, sc)
		assert.True(t, sc.Degraded)
		assert.Nil(t, sc.OverallScore)
		assert.Equal(t, domain.ConfidenceLow, sc.ConfidenceLevel)
	}
	assert.Equal(t, domain.ConfidenceLow, comp.Confidence)
	require.NotNil(t, comp.Prediction)
	assert.True(t, comp.Prediction.Degraded)
	assert.Equal(t, domain.UnknownBrand, comp.Brand.BrandName)
	assert.Empty(t, comp.LinkedCompanyID)
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("kv down")
}
func (failingKV) Set(context.Context, string, string) error { return errors.New("kv down") }
func (failingKV) Remove(context.Context, string) error      { return errors.New("kv down") }

func TestRunComprehensiveSurvivesPersistenceFailure(t *testing.T) {
	store := &apphistory.Store{KV: failingKV{}, Clock: application.FixedClock{T: time.Now()}}
	svc := newService(&scriptedProvider{replies: fullReplies()}, store, nil)

	comp, err := svc.RunComprehensive(context.Background(), "acme-agency", imageAsset("a3"), payload())
	require.NoError(t, err)
	require.NotNil(t, comp.Hook.OverallScore)
	assert.Equal(t, 80, *comp.Hook.OverallScore)
	// raw replies survive in memory even though nothing persisted
	assert.NotEmpty(t, comp.Hook.Raw)
}

func TestRunComprehensiveValidation(t *testing.T) {
	svc := newService(&scriptedProvider{replies: fullReplies()}, nil, nil)

	_, err := svc.RunComprehensive(context.Background(), "t", domain.AssetRef{}, payload())
	assert.Error(t, err)

	_, err = svc.RunComprehensive(context.Background(), "t", imageAsset("a4"), nil)
	assert.Error(t, err)
}

// memGraph minimal in-memory Graph for link assertions
type memGraph struct {
	mu        sync.Mutex
	companies map[string]*domcrm.Company
	projects  []*domcrm.Project
	activity  int
}

func newMemGraph() *memGraph {
	return &memGraph{companies: make(map[string]*domcrm.Company)}
}

func (g *memGraph) SearchCompanies(_ context.Context, _, query string) ([]*domcrm.Company, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*domcrm.Company
	for _, c := range g.companies {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (g *memGraph) GetCompany(_ context.Context, _ string, id domcrm.CompanyID) (*domcrm.Company, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.companies {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.New("not found")
}

func (g *memGraph) UpsertCompanyByName(_ context.Context, _ string, c *domcrm.Company) (*domcrm.Company, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := strings.ToLower(c.Name)
	if existing, ok := g.companies[key]; ok {
		return existing, nil
	}
	g.companies[key] = c
	return c, nil
}

func (g *memGraph) UpdateCompanyAssets(_ context.Context, _ string, id domcrm.CompanyID, assetIDs []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.companies {
		if c.ID == id {
			c.LinkedAssetIDs = assetIDs
		}
	}
	return nil
}

func (g *memGraph) SearchProjects(_ context.Context, _ string, companyID domcrm.CompanyID) ([]*domcrm.Project, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*domcrm.Project
	for _, p := range g.projects {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (g *memGraph) CreateProject(_ context.Context, _ string, p *domcrm.Project) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.projects = append(g.projects, p)
	return nil
}

func (g *memGraph) LinkAssetToProject(_ context.Context, _ string, id domcrm.ProjectID, assetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.projects {
		if p.ID != id {
			continue
		}
		for _, existing := range p.LinkedAssetIDs {
			if existing == assetID {
				return nil
			}
		}
		p.LinkedAssetIDs = append(p.LinkedAssetIDs, assetID)
	}
	return nil
}

func (g *memGraph) LogActivity(_ context.Context, _ string, _ *domcrm.Activity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activity++
	return nil
}

func TestRunComprehensiveLinksKnownBrand(t *testing.T) {
	store := &apphistory.Store{KV: kv.NewMemoryKV(0), Clock: application.FixedClock{T: time.Now()}}
	graph := newMemGraph()
	linker := &appcrm.Linker{Graph: graph, Clock: application.FixedClock{T: time.Now()}}
	svc := newService(&scriptedProvider{replies: fullReplies()}, store, linker)

	comp, err := svc.RunComprehensive(context.Background(), "acme-agency", imageAsset("a5"), payload())
	require.NoError(t, err)

	assert.NotEmpty(t, comp.LinkedCompanyID)
	assert.NotEmpty(t, comp.LinkedProjectID)
	require.Len(t, graph.companies, 1)
	require.Len(t, graph.projects, 1)
	assert.Contains(t, graph.projects[0].LinkedAssetIDs, "a5")
	assert.Equal(t, 1, graph.activity)
}
