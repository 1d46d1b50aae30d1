package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/creative-lens/internal/application"
	"github.com/bryanwahyu/creative-lens/internal/domain/analysis"
	domain "github.com/bryanwahyu/creative-lens/internal/domain/crm"
)

// Linker resolves a discovered brand into the company/project graph.
// Safe to call repeatedly for the same brand: the company upsert is atomic at
// the graph boundary and asset links are append-if-absent.
type Linker struct {
	Graph domain.Graph
	Clock application.Clock
}

// Link wires the asset and analysis to the brand's company and project.
// Returns nil when no graph is configured, the brand is unknown, or anything
// fails along the way: a failed link must never fail the analysis itself.
func (l *Linker) Link(ctx context.Context, tenant string, signal *analysis.BrandSignal, asset analysis.AssetRef, comp *analysis.CompositeAnalysis) *domain.LinkResult {
	if l == nil || l.Graph == nil {
		return nil
	}
	if !signal.Known() {
		return nil
	}
	res, err := l.link(ctx, tenant, signal, asset, comp)
	if err != nil {
		log.Printf("crm link failed: tenant=%s brand=%q asset=%s err=%v", tenant, signal.BrandName, asset.ID, err)
		return nil
	}
	return res
}

func (l *Linker) link(ctx context.Context, tenant string, signal *analysis.BrandSignal, asset analysis.AssetRef, comp *analysis.CompositeAnalysis) (*domain.LinkResult, error) {
	industry := signal.Industry
	if industry == "" {
		industry = "Unknown"
	}

	candidate := &domain.Company{
		ID:       domain.CompanyID(uuid.New().String()),
		TenantID: tenant,
		Name:     signal.BrandName,
		Industry: industry,
		Website:  normalizeWebsite(signal.Website),
		// auto-discovered brands are clients, never competitors
		Type:      "client",
		Tags:      []string{"ai-discovered"},
		Source:    "creative_analysis",
		CreatedAt: l.Clock.Now(),
	}

	company, err := l.Graph.UpsertCompanyByName(ctx, tenant, candidate)
	if err != nil {
		return nil, fmt.Errorf("upsert company: %w", err)
	}

	// idempotent append of the asset id
	if !company.HasAsset(asset.ID) {
		linked := append(append([]string{}, company.LinkedAssetIDs...), asset.ID)
		if err := l.Graph.UpdateCompanyAssets(ctx, tenant, company.ID, linked); err != nil {
			return nil, fmt.Errorf("link asset to company: %w", err)
		}
	}

	projects, err := l.Graph.SearchProjects(ctx, tenant, company.ID)
	if err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}
	var project *domain.Project
	if len(projects) > 0 {
		project = projects[0]
	} else {
		project = &domain.Project{
			ID:        domain.ProjectID(uuid.New().String()),
			TenantID:  tenant,
			CompanyID: company.ID,
			Name:      fmt.Sprintf("%s Creative Analysis", company.Name),
			Status:    "active",
			Type:      "campaign",
			CreatedAt: l.Clock.Now(),
		}
		if err := l.Graph.CreateProject(ctx, tenant, project); err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}
	}

	if err := l.Graph.LinkAssetToProject(ctx, tenant, project.ID, asset.ID); err != nil {
		return nil, fmt.Errorf("link asset to project: %w", err)
	}

	payload, _ := json.Marshal(map[string]any{
		"asset_id":     asset.ID,
		"company_id":   company.ID,
		"company_name": company.Name,
		"hook_score":   overallOf(comp.Hook),
		"cta_score":    overallOf(comp.CTA),
		"confidence":   comp.Confidence,
	})
	activity := &domain.Activity{
		TenantID:    tenant,
		Type:        "creative_analysis_linked",
		PayloadJSON: string(payload),
		CreatedAt:   l.Clock.Now(),
	}
	if err := l.Graph.LogActivity(ctx, tenant, activity); err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}

	return &domain.LinkResult{CompanyID: company.ID, ProjectID: project.ID}, nil
}

// normalizeWebsite prefixes a scheme when the signal supplied a bare domain
func normalizeWebsite(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if strings.HasPrefix(site, "http://") || strings.HasPrefix(site, "https://") {
		return site
	}
	return "https://" + site
}

func overallOf(s *analysis.DimensionScore) any {
	if s == nil || s.OverallScore == nil {
		return nil
	}
	return *s.OverallScore
}
