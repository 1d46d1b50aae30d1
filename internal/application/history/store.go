package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/creative-lens/internal/application"
	"github.com/bryanwahyu/creative-lens/internal/domain/analysis"
	domain "github.com/bryanwahyu/creative-lens/internal/domain/history"
)

const (
	defaultNamespace  = "creative_lens"
	defaultMaxEntries = 100
	defaultTruncateTo = 10
	defaultMaxArchive = 10
)

// Store is the bounded, versioned persistence layer for analyses. Keys are
// namespaced per tenant, passed explicitly on every call. All shared state
// lives behind the KV; no other component touches these keys.
type Store struct {
	KV    domain.KV
	Clock application.Clock

	Namespace  string // key prefix, default "creative_lens"
	MaxEntries int    // retained history cap, default 100
	TruncateTo int    // capacity-degradation cap, default 10
	MaxArchive int    // archived versions kept per asset, default 10
}

// SaveReport tells the caller what the write degradation chain did.
// Persistence is best-effort: the analysis itself is never lost to the caller.
type SaveReport struct {
	Persisted   bool   `json:"persisted"`
	Degradation string `json:"degradation,omitempty"` // "", stripped, truncated, cleared, or abandon reason
}

func (s *Store) namespace() string {
	if s.Namespace != "" {
		return s.Namespace
	}
	return defaultNamespace
}

func (s *Store) maxEntries() int {
	if s.MaxEntries > 0 {
		return s.MaxEntries
	}
	return defaultMaxEntries
}

func (s *Store) truncateTo() int {
	if s.TruncateTo > 0 {
		return s.TruncateTo
	}
	return defaultTruncateTo
}

func (s *Store) maxArchive() int {
	if s.MaxArchive > 0 {
		return s.MaxArchive
	}
	return defaultMaxArchive
}

func (s *Store) key(tenant, suffix string) string {
	return fmt.Sprintf("%s:%s:%s", s.namespace(), tenant, suffix)
}

// SaveCurrent overwrites the single "current analysis" slot. Survives
// independently of history; used to restore UI state across sessions.
func (s *Store) SaveCurrent(ctx context.Context, tenant string, a *analysis.CompositeAnalysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal current analysis: %w", err)
	}
	err = s.KV.Set(ctx, s.key(tenant, "current"), string(data))
	if errors.Is(err, domain.ErrCapacityExceeded) {
		// retry once without the raw model replies
		stripped, merr := json.Marshal(stripAnalysis(a))
		if merr != nil {
			return err
		}
		return s.KV.Set(ctx, s.key(tenant, "current"), string(stripped))
	}
	return err
}

// Current reads back the current-analysis slot; nil when empty.
func (s *Store) Current(ctx context.Context, tenant string) (*analysis.CompositeAnalysis, error) {
	raw, ok, err := s.KV.Get(ctx, s.key(tenant, "current"))
	if err != nil || !ok {
		return nil, err
	}
	var a analysis.CompositeAnalysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("decode current analysis: %w", err)
	}
	return &a, nil
}

// Append records an analysis in history: any prior entry for the same asset id
// is moved to the per-asset archive and replaced, the new entry goes to the
// head, and the list is truncated to the cap. On capacity failure it walks the
// degradation chain: strip raw payloads, truncate, clear, then give up silently.
func (s *Store) Append(ctx context.Context, tenant string, a *analysis.CompositeAnalysis) SaveReport {
	entries, err := s.load(ctx, tenant)
	if err != nil {
		// unreadable history is treated as empty rather than blocking the write
		entries = nil
	}

	assetID := a.Asset.ID
	for i, e := range entries {
		if e.AssetID == assetID {
			s.archive(ctx, tenant, e)
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}

	entry := &domain.Entry{AssetID: assetID, Analysis: a, SavedAt: s.Clock.Now()}
	entries = append([]*domain.Entry{entry}, entries...)
	if len(entries) > s.maxEntries() {
		entries = entries[:s.maxEntries()]
	}

	err = s.store(ctx, tenant, entries)
	if err == nil {
		return SaveReport{Persisted: true}
	}
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		return SaveReport{Degradation: err.Error()}
	}

	// tier 1: drop raw model replies, never persisted binaries anyway
	stripped := stripEntries(entries)
	if err := s.store(ctx, tenant, stripped); err == nil {
		return SaveReport{Persisted: true, Degradation: "stripped"}
	}

	// tier 2: keep only the most recent few
	if len(stripped) > s.truncateTo() {
		stripped = stripped[:s.truncateTo()]
	}
	if err := s.store(ctx, tenant, stripped); err == nil {
		return SaveReport{Persisted: true, Degradation: "truncated"}
	}

	// tier 3: clear everything, retry once with just the new entry
	_ = s.KV.Remove(ctx, s.key(tenant, "history"))
	_ = s.KV.Remove(ctx, s.key(tenant, "archive"))
	if err := s.store(ctx, tenant, stripped[:1]); err == nil {
		return SaveReport{Persisted: true, Degradation: "cleared"}
	}

	return SaveReport{Degradation: "abandoned after clear"}
}

// GetByAsset returns the retained entry for an asset id, nil when absent.
func (s *Store) GetByAsset(ctx context.Context, tenant, assetID string) (*domain.Entry, error) {
	entries, err := s.load(ctx, tenant)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.AssetID == assetID {
			return e, nil
		}
	}
	return nil, nil
}

// List returns retained entries, most recent first.
func (s *Store) List(ctx context.Context, tenant string) ([]*domain.Entry, error) {
	return s.load(ctx, tenant)
}

// Clear drops history, archive and the current slot for a tenant.
func (s *Store) Clear(ctx context.Context, tenant string) error {
	for _, suffix := range []string{"history", "archive", "current"} {
		if err := s.KV.Remove(ctx, s.key(tenant, suffix)); err != nil {
			return err
		}
	}
	return nil
}

// CompareVersions diffs the retained entry against the newest archived version
// of the same asset. Nil when fewer than two versions exist or either side has
// no usable headline score.
func (s *Store) CompareVersions(ctx context.Context, tenant, assetID string) (*domain.Comparison, error) {
	current, err := s.GetByAsset(ctx, tenant, assetID)
	if err != nil || current == nil {
		return nil, err
	}
	archived, err := s.loadArchive(ctx, tenant)
	if err != nil {
		return nil, err
	}
	versions := archived[assetID]
	if len(versions) == 0 {
		return nil, nil
	}
	prev := versions[0]

	curScore := current.Analysis.OverallScore()
	prevScore := prev.Analysis.OverallScore()
	if curScore == nil || prevScore == nil {
		return nil, nil
	}

	delta := *curScore - *prevScore
	trend := "stable"
	if delta > 0 {
		trend = "improved"
	} else if delta < 0 {
		trend = "declined"
	}
	return &domain.Comparison{
		AssetID:       assetID,
		ScoreDelta:    delta,
		PreviousScore: *prevScore,
		CurrentScore:  *curScore,
		Trend:         trend,
	}, nil
}

// Sweep drops retained and archived entries older than maxAge. Returns how many
// history entries were removed.
func (s *Store) Sweep(ctx context.Context, tenant string, maxAge time.Duration) (int, error) {
	entries, err := s.load(ctx, tenant)
	if err != nil {
		return 0, err
	}
	cutoff := s.Clock.Now().Add(-maxAge)

	kept := entries[:0]
	removed := 0
	for _, e := range entries {
		if e.SavedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed > 0 {
		if err := s.store(ctx, tenant, kept); err != nil {
			return 0, err
		}
	}

	archived, err := s.loadArchive(ctx, tenant)
	if err == nil && len(archived) > 0 {
		changed := false
		for id, versions := range archived {
			keptV := versions[:0]
			for _, v := range versions {
				if v.SavedAt.Before(cutoff) {
					changed = true
					continue
				}
				keptV = append(keptV, v)
			}
			if len(keptV) == 0 {
				delete(archived, id)
			} else {
				archived[id] = keptV
			}
		}
		if changed {
			_ = s.storeArchive(ctx, tenant, archived)
		}
	}

	return removed, nil
}

// archive pushes a replaced entry onto the per-asset version list, newest
// first, capped. Best-effort: archive loss never blocks the main write.
func (s *Store) archive(ctx context.Context, tenant string, e *domain.Entry) {
	archived, err := s.loadArchive(ctx, tenant)
	if err != nil {
		return
	}
	if archived == nil {
		archived = make(map[string][]*domain.Entry)
	}
	versions := append([]*domain.Entry{e}, archived[e.AssetID]...)
	if len(versions) > s.maxArchive() {
		versions = versions[:s.maxArchive()]
	}
	archived[e.AssetID] = versions
	_ = s.storeArchive(ctx, tenant, archived)
}

func (s *Store) load(ctx context.Context, tenant string) ([]*domain.Entry, error) {
	raw, ok, err := s.KV.Get(ctx, s.key(tenant, "history"))
	if err != nil || !ok {
		return nil, err
	}
	var entries []*domain.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

func (s *Store) store(ctx context.Context, tenant string, entries []*domain.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return s.KV.Set(ctx, s.key(tenant, "history"), string(data))
}

func (s *Store) loadArchive(ctx context.Context, tenant string) (map[string][]*domain.Entry, error) {
	raw, ok, err := s.KV.Get(ctx, s.key(tenant, "archive"))
	if err != nil || !ok {
		return nil, err
	}
	var archived map[string][]*domain.Entry
	if err := json.Unmarshal([]byte(raw), &archived); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return archived, nil
}

func (s *Store) storeArchive(ctx context.Context, tenant string, archived map[string][]*domain.Entry) error {
	data, err := json.Marshal(archived)
	if err != nil {
		return fmt.Errorf("marshal archive: %w", err)
	}
	return s.KV.Set(ctx, s.key(tenant, "archive"), string(data))
}

// stripEntries copies the list with raw model replies removed. Copies, not
// mutations: the in-memory result handed back to the caller stays intact.
func stripEntries(entries []*domain.Entry) []*domain.Entry {
	out := make([]*domain.Entry, len(entries))
	for i, e := range entries {
		c := *e
		c.Analysis = stripAnalysis(e.Analysis)
		out[i] = &c
	}
	return out
}

func stripAnalysis(a *analysis.CompositeAnalysis) *analysis.CompositeAnalysis {
	c := *a
	c.Hook = stripScore(a.Hook)
	c.CTA = stripScore(a.CTA)
	c.BrandAlignment = stripScore(a.BrandAlignment)
	c.ThumbStop = stripScore(a.ThumbStop)
	c.AudioStrategy = stripScore(a.AudioStrategy)
	return &c
}

func stripScore(s *analysis.DimensionScore) *analysis.DimensionScore {
	if s == nil || s.Raw == "" {
		return s
	}
	c := *s
	c.Raw = ""
	return &c
}
