package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
)

// Bundle is one (tier_group, patch) asset set: matchup matrices, champion
// embeddings, and priors.
type Bundle struct {
	TierGroup    draft.TierGroup        `json:"tier_group"`
	Patch        string                 `json:"patch"`
	EmbeddingDim int                    `json:"embedding_dim"`
	Matchup      map[draft.Role]*RoleMatrix `json:"matchup"`
	Embedding    [][]float64            `json:"embedding"` // rows ordered by champ_index
	Priors       map[int]Prior          `json:"priors"`

	minMatchupSupport int
}

// Config bundles the asset builder's tunable thresholds.
type Config struct {
	MinMatchupSupport int
	MinPriorSupport   int
	EmbeddingDim      int
	TrendPatchWindow  int
}

// Build runs the asset builder procedure for one tier group
// and patch: matchup matrices (step 1) and embeddings (step 2) run
// concurrently via errgroup since they read the same match slice but write
// disjoint outputs; priors (step 3) additionally needs the preceding
// patches' matches for the trend slope.
func Build(ctx *champion.Map, currentPatchMatches []*draft.Record, trendWindowMatches [][]*draft.Record, tierGroup draft.TierGroup, patch string, cfg Config) (*Bundle, error) {
	n := ctx.N()
	if n == 0 {
		return nil, fmt.Errorf("assets: champion map has no champions")
	}

	championIndex := func(id int) (int, bool) { return ctx.Index(id) }

	var matchup map[draft.Role]*RoleMatrix
	var embedding [][]float64

	g := new(errgroup.Group)
	g.Go(func() error {
		matchup = buildRoleMatrices(currentPatchMatches, n, championIndex, cfg.MinMatchupSupport)
		return nil
	})
	g.Go(func() error {
		embedding = buildEmbeddings(currentPatchMatches, n, championIndex, cfg.EmbeddingDim)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	priors := buildPriors(currentPatchMatches, trendWindowMatches, cfg.MinPriorSupport)

	return &Bundle{
		TierGroup:         tierGroup,
		Patch:             patch,
		EmbeddingDim:      cfg.EmbeddingDim,
		Matchup:           matchup,
		Embedding:         embedding,
		Priors:            priors,
		minMatchupSupport: cfg.MinMatchupSupport,
	}, nil
}

// MatchupScore returns matchup_matrix[role][blue_idx, red_idx], 0 if
// undersampled. Indices are champ_index positions.
func (b *Bundle) MatchupScore(role draft.Role, blueIdx, redIdx int) float32 {
	rm, ok := b.Matchup[role]
	if !ok {
		return 0
	}
	return rm.Lookup(blueIdx, redIdx, b.minMatchupSupport)
}

// EmbeddingRow returns the d-dim embedding for a champion index, or a zero
// vector if out of range — substitutes zero-vectors when assets are
// absent or a champion's row is unavailable.
func (b *Bundle) EmbeddingRow(idx int) []float64 {
	if idx < 0 || idx >= len(b.Embedding) {
		return make([]float64, b.EmbeddingDim)
	}
	return b.Embedding[idx]
}

// PriorFor returns the prior for a champion id, or the zero Prior with
// BaseWinrate 0.5 if absent.
func (b *Bundle) PriorFor(championID int) Prior {
	if p, ok := b.Priors[championID]; ok {
		return p
	}
	return Prior{BaseWinrate: 0.5}
}

// Dir returns the conventional per-(tier_group, patch) asset directory under
// root.
func Dir(root string, tierGroup draft.TierGroup, patch string) string {
	return filepath.Join(root, string(tierGroup), patch)
}

// onDiskBundle mirrors Bundle's JSON shape but adds the minMatchupSupport
// sidecar field so Load can reconstruct a fully functional Bundle.
type onDiskBundle struct {
	Bundle
	MinMatchupSupport int `json:"min_matchup_support"`
}

// Save writes matchups.json, embeddings.json, and priors.json to dir,
// each independently loadable, plus a combined bundle file
// for this module's own round-trip (Load).
func (b *Bundle) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	matchupRaw, err := json.MarshalIndent(b.Matchup, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "matchups.json"), matchupRaw, 0o644); err != nil {
		return err
	}

	embeddingRaw, err := json.MarshalIndent(b.Embedding, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "embeddings.json"), embeddingRaw, 0o644); err != nil {
		return err
	}

	priorsRaw, err := json.MarshalIndent(b.Priors, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "priors.json"), priorsRaw, 0o644); err != nil {
		return err
	}

	odb := onDiskBundle{Bundle: *b, MinMatchupSupport: b.minMatchupSupport}
	combined, err := json.MarshalIndent(odb, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "bundle.json"), combined, 0o644)
}

// Load reads a bundle previously written by Save. Absence of the file is
// recoverable by callers: the feature assembler treats a nil
// *Bundle as "substitute zero-blocks," so Load returning an error here is
// expected to be handled by the caller, not retried.
func Load(dir string) (*Bundle, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "bundle.json"))
	if err != nil {
		return nil, err
	}
	var odb onDiskBundle
	if err := json.Unmarshal(raw, &odb); err != nil {
		return nil, err
	}
	b := odb.Bundle
	b.minMatchupSupport = odb.MinMatchupSupport
	return &b, nil
}
