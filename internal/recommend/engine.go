// Package recommend implements the pick/ban recommendation engine: given a
// partial draft, it ranks the remaining champion pool by how much each
// candidate would move the acting side's win probability, tempered by a
// tier-appropriate skill-cap bias.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/errs"
	"github.com/herald-lol/draftlab/internal/features"
	"github.com/herald-lol/draftlab/internal/history"
	"github.com/herald-lol/draftlab/internal/model"
)

// Side is which team the recommendation is being generated for.
type Side string

const (
	Blue Side = "blue"
	Red  Side = "red"
)

func (s Side) sign() float64 {
	if s == Red {
		return -1
	}
	return 1
}

func (s Side) opposite() Side {
	if s == Blue {
		return Red
	}
	return Blue
}

// Mode selects whether candidates fill a pick slot or a ban slot.
type Mode string

const (
	PickMode Mode = "pick"
	BanMode  Mode = "ban"
)

// Registry is the subset of *registry.Registry the engine needs.
type Registry interface {
	Get(tierGroup draft.TierGroup) (*model.Artifact, error)
}

// BiasConfig holds the tier skill-cap bias and candidate-pool caps the
// engine applies when ranking candidates.
type BiasConfig struct {
	TierBiasLow       float64
	TierBiasMid       float64
	TierBiasHigh      float64
	MaxPickCandidates int
	MaxBanCandidates  int
	TopN              int
}

func (c BiasConfig) biasFor(group draft.TierGroup) float64 {
	switch group {
	case draft.GroupLow:
		return c.TierBiasLow
	case draft.GroupHigh:
		return c.TierBiasHigh
	default:
		return c.TierBiasMid
	}
}

// Candidate is one ranked recommendation.
type Candidate struct {
	ChampionID            int     `json:"champion_id"`
	Role                  draft.Role `json:"role,omitempty"`
	RawDelta              float64 `json:"raw_delta"`
	CalibratedProbability float64 `json:"calibrated_probability"`
	Score                 float64 `json:"score"` // raw delta + tier bias x skill-cap factor, used for ranking only
	Reason                string  `json:"reason"`
}

// Result is the ranked candidate pool for one recommendation request.
// Partial is true when the deadline was hit before every candidate in the
// pool could be evaluated: Candidates still holds whatever was ranked by
// that point, sorted and capped the same as a complete result, rather than
// being discarded.
type Result struct {
	Candidates []Candidate `json:"candidates"`
	Partial    bool        `json:"partial"`
}

// Engine is the wiring point for recommendation requests.
type Engine struct {
	Attrs      *champion.Map
	FeatureCfg features.Config
	Registry   Registry
	Bias       BiasConfig
}

// New builds a recommendation Engine.
func New(attrs *champion.Map, featureCfg features.Config, registry Registry, bias BiasConfig) *Engine {
	return &Engine{Attrs: attrs, FeatureCfg: featureCfg, Registry: registry, Bias: bias}
}

// Recommend ranks the legal candidate pool for the given side/mode against
// a partial draft. Candidates are sorted best-first, capped at the
// configured TopN, with no duplicate champion ids and (for pick mode) every
// candidate honoring the open slot's role. A deadline hit mid-ranking never
// fails the request: Recommend returns whatever was ranked so far with
// Result.Partial set, rather than an error.
func (e *Engine) Recommend(ctx context.Context, record *draft.Record, group draft.TierGroup, side Side, mode Mode, hist *history.Snapshot, bundle *assets.Bundle) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return &Result{Partial: true}, nil
	}

	artifact, err := e.Registry.Get(group)
	if err != nil {
		return nil, err
	}
	featureVersion := features.FeatureVersion(e.Attrs.N(), embeddingDim(bundle), e.FeatureCfg.Mode)
	if artifact.Classifier.FeatureVersion() != featureVersion {
		return nil, errs.New(errs.FeatureVersionMismatch, "", "recommend: serving artifact's feature_version does not match the live assembler")
	}

	baselineRaw, err := e.scoreRaw(record, group, hist, bundle, artifact)
	if err != nil {
		return nil, err
	}

	excluded := excludedChampions(record)
	bias := e.Bias.biasFor(group)

	switch mode {
	case PickMode:
		return e.recommendPicks(ctx, record, group, side, hist, bundle, artifact, baselineRaw, excluded, bias)
	case BanMode:
		return e.recommendBans(ctx, record, group, side, hist, bundle, artifact, baselineRaw, excluded, bias)
	default:
		return nil, fmt.Errorf("recommend: unknown mode %q", mode)
	}
}

func (e *Engine) recommendPicks(ctx context.Context, record *draft.Record, group draft.TierGroup, side Side, hist *history.Snapshot, bundle *assets.Bundle, artifact *model.Artifact, baselineRaw float64, excluded map[int]bool, bias float64) (*Result, error) {
	slotIndex, role, ok := nextEmptyPickSlot(record, side)
	if !ok {
		return nil, fmt.Errorf("recommend: %s side has no open pick slot", side)
	}

	limit := e.Bias.MaxPickCandidates
	candidateIDs := e.candidatesForRole(role, excluded, limit)

	var candidates []Candidate
	partial := false
	for _, champID := range candidateIDs {
		if err := ctx.Err(); err != nil {
			partial = true
			break
		}

		trial := clonePicks(record)
		setPick(&trial, side, slotIndex, champID)

		raw, err := e.scoreRaw(&trial, group, hist, bundle, artifact)
		if err != nil {
			continue // unknown champion or assembly error: skip rather than abort the whole ranking
		}

		delta := (raw - baselineRaw) * side.sign()
		attrs, _ := e.Attrs.Lookup(champID)
		score := delta + bias*skillCapFactor(attrs)

		candidates = append(candidates, Candidate{
			ChampionID:            champID,
			Role:                  role,
			RawDelta:              delta,
			CalibratedProbability: artifact.Calibrator.Calibrate(raw),
			Score:                 score,
			Reason:                pickReason(attrs, delta, bias),
		})
	}

	return &Result{Candidates: topCandidates(candidates, e.Bias.TopN), Partial: partial}, nil
}

func (e *Engine) recommendBans(ctx context.Context, record *draft.Record, group draft.TierGroup, side Side, hist *history.Snapshot, bundle *assets.Bundle, artifact *model.Artifact, baselineRaw float64, excluded map[int]bool, bias float64) (*Result, error) {
	opponent := side.opposite()
	slotIndex, _, opponentHasOpenSlot := nextEmptyPickSlot(record, opponent)

	if _, ok := nextEmptyBanSlot(record, side); !ok {
		return nil, fmt.Errorf("recommend: %s side has no open ban slot", side)
	}

	limit := e.Bias.MaxBanCandidates
	candidateIDs := e.Attrs.All()

	var candidates []Candidate
	partial := false
	evaluated := 0
	for _, champID := range candidateIDs {
		if excluded[champID] {
			continue
		}
		if evaluated >= limit {
			break
		}
		evaluated++
		if err := ctx.Err(); err != nil {
			partial = true
			break
		}

		attrs, _ := e.Attrs.Lookup(champID)

		var threatRaw float64
		var err error
		if opponentHasOpenSlot {
			trial := clonePicks(record)
			setPick(&trial, opponent, slotIndex, champID)
			threatRaw, err = e.scoreRaw(&trial, group, hist, bundle, artifact)
			if err != nil {
				continue
			}
		} else if bundle != nil {
			// Opponent's lineup is already locked; fall back to the
			// champion's standalone meta strength as the threat signal.
			p := bundle.PriorFor(champID)
			threatRaw = 0.5 + (p.BaseWinrate-0.5)*side.sign()*-1
		} else {
			threatRaw = baselineRaw
		}

		threatToUs := (baselineRaw - threatRaw) * side.sign()
		score := threatToUs + bias*skillCapFactor(attrs)

		candidates = append(candidates, Candidate{
			ChampionID:            champID,
			RawDelta:              threatToUs,
			CalibratedProbability: artifact.Calibrator.Calibrate(threatRaw),
			Score:                 score,
			Reason:                banReason(attrs, threatToUs),
		})
	}

	return &Result{Candidates: topCandidates(candidates, e.Bias.TopN), Partial: partial}, nil
}

func (e *Engine) candidatesForRole(role draft.Role, excluded map[int]bool, limit int) []int {
	var out []int
	for _, champID := range e.Attrs.All() {
		if excluded[champID] {
			continue
		}
		attrs, ok := e.Attrs.Lookup(champID)
		if !ok || string(attrs.Role) != string(role) {
			continue
		}
		out = append(out, champID)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (e *Engine) scoreRaw(record *draft.Record, group draft.TierGroup, hist *history.Snapshot, bundle *assets.Bundle, artifact *model.Artifact) (float64, error) {
	result, err := features.Assemble(record, group, e.Attrs, hist, bundle, e.FeatureCfg)
	if err != nil {
		return 0, err
	}
	return artifact.Classifier.Score(result.Vector), nil
}

func embeddingDim(bundle *assets.Bundle) int {
	if bundle == nil {
		return 0
	}
	return bundle.EmbeddingDim
}

func skillCapFactor(a champion.Attributes) float64 {
	// Normalizes SkillCap (0..3) to roughly [-0.5, 0.5] around the midpoint,
	// so a neutral tier bias of 0 never nudges the ranking.
	return (float64(a.SkillCap) - 1.5) / 3.0
}

func excludedChampions(r *draft.Record) map[int]bool {
	excluded := make(map[int]bool, 20)
	mark := func(slots [5]int) {
		for _, c := range slots {
			if c != draft.EmptyPick {
				excluded[c] = true
			}
		}
	}
	mark(r.BluePicks)
	mark(r.RedPicks)
	mark(r.BlueBans)
	mark(r.RedBans)
	return excluded
}

func nextEmptyPickSlot(r *draft.Record, side Side) (index int, role draft.Role, ok bool) {
	picks := r.BluePicks
	if side == Red {
		picks = r.RedPicks
	}
	for i, c := range picks {
		if c == draft.EmptyPick {
			return i, draft.Roles[i], true
		}
	}
	return 0, "", false
}

func nextEmptyBanSlot(r *draft.Record, side Side) (index int, ok bool) {
	bans := r.BlueBans
	if side == Red {
		bans = r.RedBans
	}
	for i, c := range bans {
		if c == draft.EmptyBan {
			return i, true
		}
	}
	return 0, false
}

func clonePicks(r *draft.Record) draft.Record {
	return *r
}

func setPick(r *draft.Record, side Side, index, championID int) {
	if side == Blue {
		r.BluePicks[index] = championID
	} else {
		r.RedPicks[index] = championID
	}
}

func topCandidates(candidates []Candidate, topN int) []Candidate {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}
