package registry

import (
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/errs"
	"github.com/herald-lol/draftlab/internal/model"
)

// Registry resolves a tier group to its currently promoted artifact,
// loading the bundle from disk on first use and caching it in memory.
// Loads are single-flight guarded so a burst of concurrent
// requests for an unloaded tier group triggers exactly one disk read.
type Registry struct {
	store       *Store
	artifactDir string

	mu     sync.RWMutex
	loaded map[string]*model.Artifact // artifact id -> loaded bundle

	group singleflight.Group
}

// New builds a Registry backed by store, reading artifact bundles from
// artifactDir/<artifact_id>/.
func New(store *Store, artifactDir string) *Registry {
	return &Registry{
		store:       store,
		artifactDir: artifactDir,
		loaded:      make(map[string]*model.Artifact),
	}
}

// Get returns the artifact currently serving tierGroup, loading it from
// disk on first request. Returns an errs.Error{Kind: errs.NoModelAvailable}
// if nothing has ever been promoted for the group, and
// errs.Error{Kind: errs.ArtifactLoadFailed} if the catalog points at an
// artifact directory that fails to load.
func (r *Registry) Get(tierGroup draft.TierGroup) (*model.Artifact, error) {
	artifactID, ok := r.store.CurrentArtifactID(string(tierGroup))
	if !ok {
		return nil, errs.New(errs.NoModelAvailable, "", "no artifact has been promoted for tier group "+string(tierGroup))
	}

	r.mu.RLock()
	if a, ok := r.loaded[artifactID]; ok {
		r.mu.RUnlock()
		return a, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.group.Do(artifactID, func() (interface{}, error) {
		r.mu.RLock()
		if a, ok := r.loaded[artifactID]; ok {
			r.mu.RUnlock()
			return a, nil
		}
		r.mu.RUnlock()

		artifact, loadErr := model.Load(filepath.Join(r.artifactDir, artifactID))
		if loadErr != nil {
			return nil, errs.Wrap(errs.ArtifactLoadFailed, "", "loading artifact "+artifactID, loadErr)
		}

		r.mu.Lock()
		r.loaded[artifactID] = artifact
		r.mu.Unlock()
		return artifact, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Artifact), nil
}

// All returns every tier group's currently served artifact, for a warm-up
// pass or a registry status report. Tier groups with nothing promoted are
// silently omitted rather than erroring, since "no model yet" is a normal
// startup state.
func (r *Registry) All() (map[draft.TierGroup]*model.Artifact, error) {
	out := make(map[draft.TierGroup]*model.Artifact, len(draft.AllTierGroups))
	for _, g := range draft.AllTierGroups {
		artifact, err := r.Get(g)
		if errs.Is(err, errs.NoModelAvailable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[g] = artifact
	}
	return out, nil
}

// Reload drops artifactID from the in-memory cache, forcing the next Get
// for it to re-read the bundle from disk. Used after a promotion replaces
// the file on disk for an artifact id that happens to already be cached
// (should not normally happen, since artifact ids are immutable per
// training run, but guards against an operator re-running training into
// the same directory).
func (r *Registry) Reload(artifactID string) {
	r.mu.Lock()
	delete(r.loaded, artifactID)
	r.mu.Unlock()
}

// Promote records card as the new currently-serving artifact for its tier
// group in the catalog database, demoting whatever was current before it.
// The caller is responsible for having already written the artifact bundle
// to artifactDir/<card.ArtifactID>/ via (*model.Artifact).Save.
func (r *Registry) Promote(card model.Card) error {
	return r.store.RecordPromotion(cardRow{
		ArtifactID:     card.ArtifactID,
		TierGroup:      card.TierGroup,
		ClassifierKind: string(card.ClassifierKind),
		CalibratorKind: string(card.CalibratorKind),
		FeatureVersion: card.FeatureVersion,
		SourcePatch:    card.SourcePatch,
		TrainedAt:      card.TrainedAt,
		TrainRows:      card.TrainRows,
		ValidationRows: card.ValidationRows,
		TestRows:       card.TestRows,
		TestROCAUCRaw:  card.TestMetricsRaw.ROCAUC,
		TestLogLossRaw: card.TestMetricsRaw.LogLoss,
		TestBrierRaw:   card.TestMetricsRaw.Brier,
		TestECERaw:     card.TestMetricsRaw.ECE,
		TestROCAUC:     card.TestMetricsCalibrated.ROCAUC,
		TestLogLoss:    card.TestMetricsCalibrated.LogLoss,
		TestBrier:      card.TestMetricsCalibrated.Brier,
		TestECE:        card.TestMetricsCalibrated.ECE,
		GateVerdict:    card.GateVerdict,
		PromotedFromID: card.PromotedFromID,
	})
}

// CardSummary is the registry-readable view of one catalog row, exported so
// callers outside this package (CLI listing, audit tooling) can read the
// catalog without depending on the unexported cardRow GORM model.
type CardSummary struct {
	ArtifactID     string
	TierGroup      string
	ClassifierKind string
	FeatureVersion string
	SourcePatch    string
	TrainedAt      time.Time
	TestLogLoss    float64
	TestBrier      float64
	TestROCAUC     float64
	TestECE        float64
	GateVerdict    string
	IsCurrent      bool
}

// CurrentCards lists every tier group's currently serving catalog row.
func (r *Registry) CurrentCards() ([]CardSummary, error) {
	rows, err := r.store.AllCurrent()
	if err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

// CardHistory lists every card ever promoted for a tier group, most recent
// first.
func (r *Registry) CardHistory(tierGroup draft.TierGroup) ([]CardSummary, error) {
	rows, err := r.store.History(string(tierGroup))
	if err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

func toSummaries(rows []cardRow) []CardSummary {
	out := make([]CardSummary, len(rows))
	for i, row := range rows {
		out[i] = CardSummary{
			ArtifactID:     row.ArtifactID,
			TierGroup:      row.TierGroup,
			ClassifierKind: row.ClassifierKind,
			FeatureVersion: row.FeatureVersion,
			SourcePatch:    row.SourcePatch,
			TrainedAt:      row.TrainedAt,
			TestLogLoss:    row.TestLogLoss,
			TestBrier:      row.TestBrier,
			TestROCAUC:     row.TestROCAUC,
			TestECE:        row.TestECE,
			GateVerdict:    row.GateVerdict,
			IsCurrent:      row.IsCurrent,
		}
	}
	return out
}
