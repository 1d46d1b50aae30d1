package httpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/creative-lens/internal/application"
	appanalysis "github.com/bryanwahyu/creative-lens/internal/application/analysis"
	appassets "github.com/bryanwahyu/creative-lens/internal/application/assets"
	apphistory "github.com/bryanwahyu/creative-lens/internal/application/history"
	domai "github.com/bryanwahyu/creative-lens/internal/domain/ai"
	domassets "github.com/bryanwahyu/creative-lens/internal/domain/assets"
	"github.com/bryanwahyu/creative-lens/internal/infra/ai/gateway"
	"github.com/bryanwahyu/creative-lens/internal/infra/kv"
)

// staticProvider returns one scripted reply per call site, matched on a
// substring of the instruction.
type staticProvider struct{}

func (staticProvider) Name() string                   { return "static" }
func (staticProvider) Supports(domai.Capability) bool { return true }
func (staticProvider) Call(_ context.Context, instruction string, _ *domai.ImagePayload) (string, error) {
	switch {
	case strings.Contains(instruction, "brand-recognition analyst"):
		return `{"brand_name": "unknown", "confidence": "low"}`, nil
	case strings.Contains(instruction, "media-buying analyst"):
		return `{"ctr": {"low": 0.5, "expected": 1.0, "high": 1.5}, "cpm": {"low": 5, "expected": 8, "high": 12}, "engagement": {"low": 1, "expected": 2, "high": 3}, "conversion_potential": "moderate"}`, nil
	case strings.Contains(instruction, "Dimension: hook"):
		return `{"overall_score": 80, "attention_grab": 80, "message_clarity": 80, "visual_impact": 80, "recommendations": [], "confidence_level": "high"}`, nil
	case strings.Contains(instruction, "Dimension: cta"):
		return `{"overall_score": 70, "visibility": 70, "clarity": 70, "urgency": 70, "cta_detected": true, "cta_type": "button", "recommendations": [], "confidence_level": "high"}`, nil
	case strings.Contains(instruction, "Dimension: brand_alignment"):
		return `{"overall_score": 85, "logo_presence": 85, "color_harmony": 85, "tone_consistency": 85, "logo_detected": true, "recommendations": [], "confidence_level": "high"}`, nil
	case strings.Contains(instruction, "Dimension: thumb_stop"):
		return `{"overall_score": 65, "first_impression": 65, "color_contrast": 65, "face_presence": 65, "face_detected": false, "recommendations": [], "confidence_level": "medium"}`, nil
	default:
		return `{"overall_score": 60, "hook_sync": 60, "pacing": 60, "clarity": 60, "recommendations": [], "confidence_level": "low"}`, nil
	}
}

type stubAssetRepo struct{ saved []*domassets.Asset }

func (r *stubAssetRepo) Save(_ context.Context, a *domassets.Asset) error {
	r.saved = append(r.saved, a)
	return nil
}
func (r *stubAssetRepo) Get(_ context.Context, tenant string, id domassets.AssetID) (*domassets.Asset, error) {
	for _, a := range r.saved {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}
func (r *stubAssetRepo) ListAll(_ context.Context, tenant string) ([]*domassets.Asset, error) {
	return r.saved, nil
}

type stubBinaries struct{}

func (stubBinaries) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "http://minio.local/creatives/" + key, nil
}

func newTestServer() *httptest.Server {
	clock := application.FixedClock{T: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	historyStore := &apphistory.Store{KV: kv.NewMemoryKV(0), Clock: clock}
	analysisSvc := &appanalysis.Service{
		Scorers: &appanalysis.Scorers{Gateway: gateway.New(staticProvider{})},
		History: historyStore,
		Clock:   clock,
	}
	assetsSvc := &appassets.Service{Repo: &stubAssetRepo{}, Binaries: stubBinaries{}, Clock: clock}
	return httptest.NewServer(NewRouter(analysisSvc, historyStore, assetsSvc, nil, nil))
}

func postJSON(t *testing.T, url string, body map[string]any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", strings.NewReader(string(data)))
	require.NoError(t, err)
	return resp
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/v1/studio-a/analyze", map[string]any{
		"asset_id":     "a1",
		"filename":     "summer_sale.jpg",
		"type":         "image",
		"width":        1080,
		"height":       1080,
		"image_base64": base64.StdEncoding.EncodeToString([]byte("img")),
		"mime_type":    "image/jpeg",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var comp struct {
		Hook struct {
			OverallScore *int `json:"overall_score"`
		} `json:"hook"`
		AudioStrategy struct {
			Degraded bool `json:"degraded"`
		} `json:"audio_strategy"`
		Confidence string `json:"confidence"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&comp))
	require.NotNil(t, comp.Hook.OverallScore)
	assert.Equal(t, 80, *comp.Hook.OverallScore)
	assert.True(t, comp.AudioStrategy.Degraded)
	assert.Equal(t, "high", comp.Confidence)

	// the run landed in history
	histResp, err := http.Get(srv.URL + "/v1/studio-a/analysis/history")
	require.NoError(t, err)
	defer histResp.Body.Close()
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	var entries []struct {
		AssetID string `json:"asset_id"`
	}
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "a1", entries[0].AssetID)

	// and in the current slot
	curResp, err := http.Get(srv.URL + "/v1/studio-a/analysis/current")
	require.NoError(t, err)
	curResp.Body.Close()
	assert.Equal(t, http.StatusOK, curResp.StatusCode)
}

func TestAnalyzeRequiresImage(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/v1/studio-a/analyze", map[string]any{"asset_id": "a1", "type": "image"})
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAnalyzeRejectsBadTenant(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/v1/bad%20tenant/analyze", map[string]any{
		"asset_id":     "a1",
		"filename":     "a.jpg",
		"type":         "image",
		"image_base64": "aW1n",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCompareNotEnoughVersions(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/studio-a/analysis/a1/compare")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClearHistory(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/studio-a/analysis/history", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAssetUploadAndList(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/v1/studio-a/assets", map[string]any{
		"filename":     "clip.mp4",
		"kind":         "video",
		"duration_sec": 12.5,
		"data_base64":  base64.StdEncoding.EncodeToString([]byte("vid")),
		"content_type": "video/mp4",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/v1/studio-a/assets")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var assets []struct {
		Filename string `json:"filename"`
		Kind     string `json:"kind"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&assets))
	require.Len(t, assets, 1)
	assert.Equal(t, "clip.mp4", assets[0].Filename)
	assert.Equal(t, "video", assets[0].Kind)
}

func TestCompaniesWithoutGraph(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/studio-a/companies?q=acme")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mResp.Body.Close()
	require.Equal(t, http.StatusOK, mResp.StatusCode)
	var m map[string]any
	require.NoError(t, json.NewDecoder(mResp.Body).Decode(&m))
	assert.Contains(t, m, "analyses_total")
}
