package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/creative-lens/internal/application"
	appcrm "github.com/bryanwahyu/creative-lens/internal/application/crm"
	apphistory "github.com/bryanwahyu/creative-lens/internal/application/history"
	domai "github.com/bryanwahyu/creative-lens/internal/domain/ai"
	domain "github.com/bryanwahyu/creative-lens/internal/domain/analysis"
)

// Service implements the analysis orchestration use-cases.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Scorers *Scorers
	History *apphistory.Store
	Linker  *appcrm.Linker
	Clock   application.Clock
}

// outcome of one settled member of the scoring group
type outcome struct {
	dim   domain.Dimension
	score *domain.DimensionScore
}

// RunComprehensive turns one creative asset into a confidence-rated scorecard.
//
// Independent scorers and brand discovery fire concurrently and are joined with
// partial-failure tolerance: each member settles on its own and a member failure
// never fails the group (scorers self-degrade). The performance predictor has a
// hard ordering dependency on the settled scores. Persistence is best-effort:
// a failed write is logged and the in-memory result is still returned.
func (s *Service) RunComprehensive(ctx context.Context, tenant string, asset domain.AssetRef, image *domai.ImagePayload) (*domain.CompositeAnalysis, error) {
	if asset.ID == "" {
		return nil, fmt.Errorf("asset id is required")
	}
	if image == nil {
		return nil, fmt.Errorf("image payload is required")
	}

	started := s.Clock.Now()

	dims := []domain.Dimension{domain.DimensionHook, domain.DimensionCTA, domain.DimensionBrand, domain.DimensionThumbStop}
	if asset.IsVideo() {
		dims = append(dims, domain.DimensionAudio)
	}

	// settle-all join: one slot per member, no short-circuit on any failure
	outcomes := make([]outcome, len(dims))
	var wg sync.WaitGroup
	for i, d := range dims {
		wg.Add(1)
		go func(i int, d domain.Dimension) {
			defer wg.Done()
			outcomes[i] = outcome{dim: d, score: s.Scorers.Score(ctx, d, asset, image)}
		}(i, d)
	}

	// brand discovery overlaps with scoring and prediction; no ordering dependency
	var brand *domain.BrandSignal
	var brandWg sync.WaitGroup
	brandWg.Add(1)
	go func() {
		defer brandWg.Done()
		brand = s.Scorers.DiscoverBrand(ctx, asset, image)
	}()

	wg.Wait()

	byDim := make(map[domain.Dimension]*domain.DimensionScore, len(outcomes))
	for _, o := range outcomes {
		byDim[o.dim] = o.score
	}
	if byDim[domain.DimensionAudio] == nil {
		// slot is always populated, even for stills
		byDim[domain.DimensionAudio] = DegradedScore(domain.DimensionAudio, asset.ID, "audio strategy applies to video assets only")
	}

	// predictor must not start before the scorers settle
	numCtx := make(map[string]*int, len(byDim))
	for d, sc := range byDim {
		numCtx[string(d)] = sc.OverallScore
	}
	prediction := s.Scorers.Predict(ctx, asset, numCtx)

	brandWg.Wait()

	comp := &domain.CompositeAnalysis{
		ID:             domain.AnalysisID(uuid.New().String()),
		TenantID:       tenant,
		Asset:          asset,
		AnalyzedAt:     started,
		Hook:           byDim[domain.DimensionHook],
		CTA:            byDim[domain.DimensionCTA],
		BrandAlignment: byDim[domain.DimensionBrand],
		ThumbStop:      byDim[domain.DimensionThumbStop],
		AudioStrategy:  byDim[domain.DimensionAudio],
		Prediction:     prediction,
		Brand:          brand,
		Confidence:     domain.DeriveConfidence(byDim[domain.DimensionHook], byDim[domain.DimensionCTA], byDim[domain.DimensionThumbStop]),
	}

	if brand.Known() && s.Linker != nil {
		if res := s.Linker.Link(ctx, tenant, brand, asset, comp); res != nil {
			comp.LinkedCompanyID = string(res.CompanyID)
			comp.LinkedProjectID = string(res.ProjectID)
		}
	}

	comp.ProcessingMS = s.Clock.Now().Sub(started).Milliseconds()

	if s.History != nil {
		if err := s.History.SaveCurrent(ctx, tenant, comp); err != nil {
			log.Printf("history save current failed: tenant=%s asset=%s err=%v", tenant, asset.ID, err)
		}
		report := s.History.Append(ctx, tenant, comp)
		if !report.Persisted {
			log.Printf("history append abandoned: tenant=%s asset=%s reason=%s", tenant, asset.ID, report.Degradation)
		} else if report.Degradation != "" {
			log.Printf("history append degraded: tenant=%s asset=%s tier=%s", tenant, asset.ID, report.Degradation)
		}
	}

	return comp, nil
}
