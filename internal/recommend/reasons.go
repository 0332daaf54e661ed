package recommend

import (
	"fmt"

	"github.com/herald-lol/draftlab/internal/champion"
)

// pickReason builds a human-readable explanation for a pick candidate,
// combining the model's measured win-probability delta with the tags that
// most plausibly drove it. The vocabulary (lane presence, team fight,
// scaling) mirrors the categories counter_pick_service.go's analysis
// reports under, translated to plain English rather than quoted verbatim.
func pickReason(attrs champion.Attributes, delta, bias float64) string {
	pct := delta * 100
	switch {
	case delta >= 0.03:
		return fmt.Sprintf("%s raises the projected win probability by %.1f%%, driven by its %s", attrs.Name, pct, dominantTagPhrase(attrs))
	case delta <= -0.03:
		return fmt.Sprintf("%s actually lowers the projected win probability by %.1f%%; weak fit for the current composition", attrs.Name, -pct)
	case bias > 0 && attrs.SkillCap >= 2:
		return fmt.Sprintf("%s is a high-ceiling pick favored at this skill tier", attrs.Name)
	case bias < 0 && attrs.SkillCap <= 1:
		return fmt.Sprintf("%s is a low-mechanical-floor pick suited to this skill tier", attrs.Name)
	default:
		return fmt.Sprintf("%s is a neutral, low-risk option here", attrs.Name)
	}
}

// banReason explains why a champion is a ban threat: how much win
// probability the acting side stands to lose if the opponent is left free
// to pick it.
func banReason(attrs champion.Attributes, threatToUs float64) string {
	pct := threatToUs * 100
	switch {
	case threatToUs >= 0.05:
		return fmt.Sprintf("leaving %s open costs roughly %.1f%% win probability if the opponent takes it", attrs.Name, pct)
	case threatToUs >= 0.02:
		return fmt.Sprintf("%s is a moderate meta threat worth banning", attrs.Name)
	default:
		return fmt.Sprintf("%s is a low-priority ban; limited measured impact", attrs.Name)
	}
}

func dominantTagPhrase(attrs champion.Attributes) string {
	best := "balanced kit"
	bestScore := -1
	consider := func(score int, phrase string) {
		if score > bestScore {
			bestScore = score
			best = phrase
		}
	}
	consider(attrs.Engage, "engage threat")
	consider(attrs.HardCC, "hard crowd control")
	consider(attrs.Poke, "poke pressure")
	consider(attrs.Splitpush, "splitpush threat")
	consider(attrs.Frontline, "frontline presence")
	consider(attrs.ScalingLate, "late-game scaling")
	return best
}
