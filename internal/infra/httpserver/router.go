package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/bryanwahyu/creative-lens/internal/application/analysis"
	appassets "github.com/bryanwahyu/creative-lens/internal/application/assets"
	apphistory "github.com/bryanwahyu/creative-lens/internal/application/history"
	domai "github.com/bryanwahyu/creative-lens/internal/domain/ai"
	domassets "github.com/bryanwahyu/creative-lens/internal/domain/assets"
	domanalysis "github.com/bryanwahyu/creative-lens/internal/domain/analysis"
	domcrm "github.com/bryanwahyu/creative-lens/internal/domain/crm"
	"github.com/bryanwahyu/creative-lens/internal/middleware"
)

type Router struct {
	analysisSvc *appanalysis.Service
	historySvc  *apphistory.Store
	assetsSvc   *appassets.Service
	graph       domcrm.Graph
}

func NewRouter(analysisSvc *appanalysis.Service, historySvc *apphistory.Store, assetsSvc *appassets.Service, graph domcrm.Graph, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{analysisSvc: analysisSvc, historySvc: historySvc, assetsSvc: assetsSvc, graph: graph}
	mux := chi.NewRouter()

	if len(checkers) > 0 {
		mux.Get("/health", middleware.HealthHandler(checkers))
	} else {
		mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	}
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/analysis/current", r.wrap(r.handleCurrent))
		rt.Get("/analysis/history", r.wrap(r.handleHistory))
		rt.Delete("/analysis/history", r.wrap(r.handleClearHistory))
		rt.Get("/analysis/{assetID}", r.wrap(r.handleGetAnalysis))
		rt.Get("/analysis/{assetID}/compare", r.wrap(r.handleCompare))

		rt.Post("/assets", r.wrap(r.handleUploadAsset))
		rt.Get("/assets", r.wrap(r.handleListAssets))
		rt.Get("/assets/{id}", r.wrap(r.handleGetAsset))

		rt.Get("/companies", r.wrap(r.handleSearchCompanies))
		rt.Get("/companies/{id}", r.wrap(r.handleGetCompany))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrNoProvider) {
				http.Error(w, "no ai provider available", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func tenantOf(req *http.Request) (string, error) {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return "", err
	}
	return tenant, nil
}

// POST /v1/{tenant}/analyze
// Body: inline asset metadata + base64 image, or asset_id pointing at a
// previously uploaded asset. The image bytes always travel in the request;
// stored binaries are not re-fetched here.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}

	var body struct {
		AssetID     string  `json:"asset_id"`
		Filename    string  `json:"filename"`
		Type        string  `json:"type"`
		Width       int     `json:"width"`
		Height      int     `json:"height"`
		DurationSec float64 `json:"duration_sec"`
		ImageBase64 string  `json:"image_base64"`
		MimeType    string  `json:"mime_type"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if body.ImageBase64 == "" {
		return fmt.Errorf("image_base64 is required")
	}

	var ref domanalysis.AssetRef
	if body.AssetID != "" && body.Filename == "" {
		// referensi ke asset yang sudah diupload
		stored, err := r.assetsSvc.Get(req.Context(), tenant, domassets.AssetID(body.AssetID))
		if err != nil {
			return err
		}
		if stored == nil {
			return sql.ErrNoRows
		}
		ref = stored.Ref()
	} else {
		if body.AssetID == "" {
			return fmt.Errorf("asset_id is required")
		}
		if err := middleware.ValidateMediaKind(body.Type); err != nil {
			return err
		}
		ref = domanalysis.AssetRef{
			ID:          body.AssetID,
			Filename:    middleware.SanitizeString(body.Filename),
			Type:        domanalysis.MediaKind(body.Type),
			Width:       body.Width,
			Height:      body.Height,
			DurationSec: body.DurationSec,
		}
	}

	mime := body.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	image := &domai.ImagePayload{Base64: body.ImageBase64, MimeType: mime}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	comp, err := r.analysisSvc.RunComprehensive(req.Context(), tenant, ref, image)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	if hasDegradedScore(comp) {
		middleware.IncrementAnalysesDegraded()
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(comp)
}

func hasDegradedScore(c *domanalysis.CompositeAnalysis) bool {
	for _, sc := range c.Scores() {
		if sc != nil && sc.Degraded {
			return true
		}
	}
	return false
}

// GET /v1/{tenant}/analysis/current
func (r *Router) handleCurrent(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}
	current, err := r.historySvc.Current(req.Context(), tenant)
	if err != nil {
		return err
	}
	if current == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(current)
}

// GET /v1/{tenant}/analysis/history?limit=20
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	entries, err := r.historySvc.List(req.Context(), tenant)
	if err != nil {
		return err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(entries)
}

// DELETE /v1/{tenant}/analysis/history
func (r *Router) handleClearHistory(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}
	if err := r.historySvc.Clear(req.Context(), tenant); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}

// GET /v1/{tenant}/analysis/{assetID}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}
	assetID := chi.URLParam(req, "assetID")
	if err := middleware.ValidateAssetID(assetID); err != nil {
		return err
	}

	entry, err := r.historySvc.GetByAsset(req.Context(), tenant, assetID)
	if err != nil {
		return err
	}
	if entry == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(entry)
}

// GET /v1/{tenant}/analysis/{assetID}/compare
func (r *Router) handleCompare(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}
	assetID := chi.URLParam(req, "assetID")
	if err := middleware.ValidateAssetID(assetID); err != nil {
		return err
	}

	cmp, err := r.historySvc.CompareVersions(req.Context(), tenant, assetID)
	if err != nil {
		return err
	}
	if cmp == nil {
		// fewer than two versions, nothing to diff
		http.Error(w, "not enough versions to compare", http.StatusNotFound)
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(cmp)
}

// POST /v1/{tenant}/assets
func (r *Router) handleUploadAsset(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}

	var body struct {
		Filename    string  `json:"filename"`
		Kind        string  `json:"kind"`
		Width       int     `json:"width"`
		Height      int     `json:"height"`
		DurationSec float64 `json:"duration_sec"`
		DataBase64  string  `json:"data_base64"`
		ContentType string  `json:"content_type"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}

	asset, err := r.assetsSvc.Upload(req.Context(), appassets.UploadCommand{
		TenantID:    tenant,
		Filename:    middleware.SanitizeString(body.Filename),
		Kind:        body.Kind,
		Width:       body.Width,
		Height:      body.Height,
		DurationSec: body.DurationSec,
		DataBase64:  body.DataBase64,
		ContentType: body.ContentType,
	})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(asset)
}

// GET /v1/{tenant}/assets
func (r *Router) handleListAssets(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}
	list, err := r.assetsSvc.ListAll(req.Context(), tenant)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/assets/{id}
func (r *Router) handleGetAsset(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	asset, err := r.assetsSvc.Get(req.Context(), tenant, domassets.AssetID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(asset)
}

// GET /v1/{tenant}/companies?q=acme
func (r *Router) handleSearchCompanies(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}
	if r.graph == nil {
		http.Error(w, "crm graph not configured", http.StatusServiceUnavailable)
		return nil
	}
	query := middleware.SanitizeString(req.URL.Query().Get("q"))
	list, err := r.graph.SearchCompanies(req.Context(), tenant, query)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/companies/{id}
func (r *Router) handleGetCompany(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantOf(req)
	if err != nil {
		return err
	}
	if r.graph == nil {
		http.Error(w, "crm graph not configured", http.StatusServiceUnavailable)
		return nil
	}
	id := chi.URLParam(req, "id")
	company, err := r.graph.GetCompany(req.Context(), tenant, domcrm.CompanyID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(company)
}
