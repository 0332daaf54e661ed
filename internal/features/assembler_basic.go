package features

import (
	"strconv"
	"strings"

	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/history"
)

// teamComposition is the 11 per-team summary scores summed over a
// team's five picks.
type teamComposition struct {
	apAdRatio    float64
	engageSum    float64
	ccSum        float64
	pokeSum      float64
	splitpushSum float64
	frontlineSum float64
	skillCapSum  float64
	scalingEarly float64
	scalingMid   float64
	scalingLate  float64
	roleBalance  float64
}

func (c teamComposition) ordered() []float64 {
	return []float64{
		c.apAdRatio, c.engageSum, c.ccSum, c.pokeSum, c.splitpushSum,
		c.frontlineSum, c.skillCapSum, c.scalingEarly, c.scalingMid, c.scalingLate,
		c.roleBalance,
	}
}

// diffMetric returns the value of one of the 8 diffable metrics by name.
func (c teamComposition) diffMetric(name string) float64 {
	switch name {
	case "ap_ad_ratio":
		return c.apAdRatio
	case "engage_sum":
		return c.engageSum
	case "cc_sum":
		return c.ccSum
	case "poke_sum":
		return c.pokeSum
	case "splitpush_sum":
		return c.splitpushSum
	case "frontline_sum":
		return c.frontlineSum
	case "skill_cap_sum":
		return c.skillCapSum
	case "scaling_early_sum":
		return c.scalingEarly
	}
	return 0
}

func computeComposition(picks [5]int, attrs *champion.Map) teamComposition {
	var c teamComposition
	var apCount, adCount float64
	missingRoles := 0
	for _, p := range picks {
		if p == draft.EmptyPick {
			missingRoles++
			continue
		}
		a, ok := attrs.Lookup(p)
		if !ok {
			missingRoles++
			continue
		}
		switch a.Damage {
		case champion.AP:
			apCount++
		case champion.AD:
			adCount++
		}
		c.engageSum += float64(a.Engage)
		c.ccSum += float64(a.HardCC)
		c.pokeSum += float64(a.Poke)
		c.splitpushSum += float64(a.Splitpush)
		c.frontlineSum += float64(a.Frontline)
		c.skillCapSum += float64(a.SkillCap)
		c.scalingEarly += float64(a.ScalingEarly)
		c.scalingMid += float64(a.ScalingMid)
		c.scalingLate += float64(a.ScalingLate)
	}
	total := apCount + adCount
	if total > 0 {
		c.apAdRatio = (apCount - adCount) / total
	}
	c.roleBalance = 1 - float64(missingRoles)/5
	return c
}

// --- block 3: composition features (30) ---

func assembleComposition(b *builder, r *draft.Record, attrs *champion.Map) {
	blue := computeComposition(r.BluePicks, attrs)
	red := computeComposition(r.RedPicks, attrs)

	blueNames := []string{
		"ap_ad_ratio", "engage_sum", "cc_sum", "poke_sum", "splitpush_sum",
		"frontline_sum", "skill_cap_sum", "scaling_early_sum", "scaling_mid_sum",
		"scaling_late_sum", "role_balance",
	}
	for i, v := range blue.ordered() {
		b.push("composition.blue."+blueNames[i], v)
	}
	for i, v := range red.ordered() {
		b.push("composition.red."+blueNames[i], v)
	}
	for _, name := range compositionDiffMetrics {
		b.push("composition.diff."+name, blue.diffMetric(name)-red.diffMetric(name))
	}
}

// --- block 4: patch features (2) ---

func assemblePatch(b *builder, r *draft.Record, referenceSeason int) {
	season, minor := parsePatch(r.Patch)
	b.push("patch.season_norm", float64(season-referenceSeason)/10.0)
	b.push("patch.minor_norm", float64(minor)/24.0)
}

func parsePatch(patch string) (season, minor int) {
	parts := strings.SplitN(patch, ".", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	season, _ = strconv.Atoi(parts[0])
	minor, _ = strconv.Atoi(parts[1])
	return season, minor
}

// --- block 5: tier one-hot (10) ---

func assembleTier(b *builder, tier draft.Tier) {
	idx := draft.TierIndex(tier)
	for i, t := range draft.AllTiers {
		v := 0.0
		if i == idx {
			v = 1
		}
		b.push("tier."+string(t), v)
	}
}

// --- block 6 (basic mode): history features (3) ---

func assembleHistory(b *builder, r *draft.Record, hist *history.Snapshot) {
	var synergyBlue, synergyRed, counter float64
	if hist != nil {
		synergyBlue = hist.Synergy(r.BluePicks)
		synergyRed = hist.Synergy(r.RedPicks)
		counter = hist.CounterAdvantage(r.BluePicks, r.RedPicks)
	}
	b.push("history.synergy_blue", synergyBlue)
	b.push("history.synergy_red", synergyRed)
	b.push("history.counter_advantage", counter)
}

// --- block 7: objectives / derived scalars (4) ---

func assembleObjectives(b *builder, r *draft.Record) {
	var d draft.DerivedFeatures
	if r.Derived != nil {
		d = *r.Derived
	}
	b.push("objectives.ap_ad_ratio", d.APADRatio)
	b.push("objectives.engage_score", d.EngageScore)
	b.push("objectives.splitpush_score", d.SplitpushScore)
	b.push("objectives.teamfight_synergy", d.TeamfightSynergy)
}
