package features

import (
	"fmt"
	"math"
	"strconv"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/history"
)

// Config carries the assembler's one free parameter beyond (N, d, mode):
// the reference season patch features are expressed relative to.
type Config struct {
	ReferenceSeason int
	Mode            Mode
}

// Result is the assembler's pure output: a fixed-length vector plus a
// named-feature dict for explanations and tests (not consumed by the model).
type Result struct {
	Vector []float64
	Named  map[string]float64
	// Names holds the same feature names as Named, but in Vector order, so
	// callers (e.g. the inference engine's explanation code) can map a
	// vector index back to a human-readable name without relying on map
	// iteration order.
	Names []string
}

// compositionDiffMetrics names the 8 composition metrics that additionally
// get a blue-minus-red difference feature.
var compositionDiffMetrics = []string{
	"ap_ad_ratio", "engage_sum", "cc_sum", "poke_sum",
	"splitpush_sum", "frontline_sum", "skill_cap_sum", "scaling_early_sum",
}

// duoRolePairs are the three same-team duos the rich-mode compact encoding
// covers.
var duoRolePairs = [][2]draft.Role{
	{draft.Top, draft.Jungle},
	{draft.Mid, draft.Jungle},
	{draft.ADC, draft.Support},
}

type builder struct {
	vec   []float64
	named map[string]float64
	names []string
}

func (b *builder) push(name string, value float64) {
	b.vec = append(b.vec, value)
	b.named[name] = value
	b.names = append(b.names, name)
}

func (b *builder) pushBlock(prefix string, values []float64) {
	for i, v := range values {
		b.push(prefix+"["+strconv.Itoa(i)+"]", v)
	}
}

// Assemble is the pure feature-assembly function. It performs no I/O and
// no logging; every dependency enters via a parameter. Unknown champion
// ids (for present, non-empty pick/ban slots) are a hard error — the
// vector's semantics depend on champ_index.
func Assemble(record *draft.Record, group draft.TierGroup, attrs *champion.Map, hist *history.Snapshot, bundle *assets.Bundle, cfg Config) (*Result, error) {
	if attrs == nil {
		return nil, fmt.Errorf("features: champion attribute map is required")
	}
	n := attrs.N()
	d := 0
	if bundle != nil {
		d = bundle.EmbeddingDim
	}

	if err := checkKnownChampions(record, attrs); err != nil {
		return nil, err
	}

	b := &builder{
		vec:   make([]float64, 0, Dim(n, d, cfg.Mode)),
		named: make(map[string]float64, Dim(n, d, cfg.Mode)),
	}

	assembleRoleOneHots(b, record, attrs, n)
	assembleBanOneHots(b, record, attrs, n)
	assembleComposition(b, record, attrs)
	assemblePatch(b, record, cfg.ReferenceSeason)
	assembleTier(b, record.Tier)

	switch cfg.Mode {
	case Rich:
		assembleDuoEncoding(b, record, attrs, n)
		assembleLaneMatchups(b, record, attrs, bundle)
		assembleMetaPriors(b, record, bundle)
		assembleEmbeddingSum(b, record, attrs, bundle, d)
		assembleBanContext(b, record, bundle)
	default:
		assembleHistory(b, record, hist)
	}

	assembleObjectives(b, record)

	scrubNonFinite(b.vec)
	for k, v := range b.named {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.named[k] = 0
		}
	}

	wantDim := Dim(n, d, cfg.Mode)
	if len(b.vec) != wantDim {
		return nil, fmt.Errorf("features: internal layout error: got %d features, want %d", len(b.vec), wantDim)
	}

	return &Result{Vector: b.vec, Named: b.named, Names: b.names}, nil
}

func checkKnownChampions(r *draft.Record, attrs *champion.Map) error {
	check := func(id int) error {
		if id == draft.EmptyPick {
			return nil
		}
		if _, ok := attrs.Index(id); !ok {
			return fmt.Errorf("features: unknown champion id %d", id)
		}
		return nil
	}
	for _, c := range r.BluePicks {
		if err := check(c); err != nil {
			return err
		}
	}
	for _, c := range r.RedPicks {
		if err := check(c); err != nil {
			return err
		}
	}
	for _, c := range r.BlueBans {
		if c != draft.EmptyBan {
			if err := check(c); err != nil {
				return err
			}
		}
	}
	for _, c := range r.RedBans {
		if c != draft.EmptyBan {
			if err := check(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func scrubNonFinite(vec []float64) {
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vec[i] = 0
		}
	}
}

// --- block 1: role one-hots (2 x 5 x N) ---

func assembleRoleOneHots(b *builder, r *draft.Record, attrs *champion.Map, n int) {
	for _, side := range []struct {
		name  string
		picks [5]int
	}{{"blue", r.BluePicks}, {"red", r.RedPicks}} {
		for i, role := range draft.Roles {
			oneHot := make([]float64, n)
			if idx, ok := attrs.Index(side.picks[i]); ok {
				oneHot[idx] = 1
			}
			b.pushBlock(fmt.Sprintf("role_onehot.%s.%s", side.name, role), oneHot)
		}
	}
}

// --- block 2: ban one-hots (2 x 5 x N) ---

func assembleBanOneHots(b *builder, r *draft.Record, attrs *champion.Map, n int) {
	for _, side := range []struct {
		name string
		bans [5]int
	}{{"blue", r.BlueBans}, {"red", r.RedBans}} {
		for i, c := range side.bans {
			oneHot := make([]float64, n)
			if c != draft.EmptyBan {
				if idx, ok := attrs.Index(c); ok {
					oneHot[idx] = 1
				}
			}
			b.pushBlock(fmt.Sprintf("ban_onehot.%s.%d", side.name, i), oneHot)
		}
	}
}
