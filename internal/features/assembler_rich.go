package features

import (
	"fmt"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
)

func roleSlotIndex(role draft.Role) int {
	for i, r := range draft.Roles {
		if r == role {
			return i
		}
	}
	return -1
}

// --- block 6a: compact duo encoding (18) ---

func assembleDuoEncoding(b *builder, r *draft.Record, attrs *champion.Map, n int) {
	for _, side := range []struct {
		name  string
		picks [5]int
	}{{"blue", r.BluePicks}, {"red", r.RedPicks}} {
		for _, duo := range duoRolePairs {
			aPick := side.picks[roleSlotIndex(duo[0])]
			bPick := side.picks[roleSlotIndex(duo[1])]

			aIdx, aOK := attrs.Index(aPick)
			bIdx, bOK := attrs.Index(bPick)

			aNorm, bNorm := 0.0, 0.0
			if aOK {
				aNorm = float64(aIdx) / float64(n)
			}
			if bOK {
				bNorm = float64(bIdx) / float64(n)
			}
			present := 0.0
			if aOK && bOK {
				present = 1
			}

			label := fmt.Sprintf("duo.%s.%s_%s", side.name, duo[0], duo[1])
			b.push(label+".a", aNorm)
			b.push(label+".b", bNorm)
			b.push(label+".present", present)
		}
	}
}

// --- block 6b: lane matchup scores (5) ---

func assembleLaneMatchups(b *builder, r *draft.Record, attrs *champion.Map, bundle *assets.Bundle) {
	for i, role := range draft.Roles {
		var score float32
		if bundle != nil {
			blueIdx, blueOK := attrs.Index(r.BluePicks[i])
			redIdx, redOK := attrs.Index(r.RedPicks[i])
			if blueOK && redOK {
				score = bundle.MatchupScore(role, blueIdx, redIdx)
			}
		}
		b.push("lane_matchup."+string(role), float64(score))
	}
}

// --- block 6c: meta priors (6) ---

func assembleMetaPriors(b *builder, r *draft.Record, bundle *assets.Bundle) {
	for _, side := range []struct {
		name  string
		picks [5]int
	}{{"blue", r.BluePicks}, {"red", r.RedPicks}} {
		var sumWR, sumPick, sumTrend float64
		n := 0
		for _, c := range side.picks {
			if c == draft.EmptyPick {
				continue
			}
			n++
			if bundle != nil {
				p := bundle.PriorFor(c)
				sumWR += p.BaseWinrate
				sumPick += p.PickRate
				sumTrend += p.Trend3Patch
			} else {
				sumWR += 0.5
			}
		}
		mean := func(sum float64) float64 {
			if n == 0 {
				return 0
			}
			return sum / float64(n)
		}
		b.push("meta_prior."+side.name+".mean_base_winrate", mean(sumWR))
		b.push("meta_prior."+side.name+".mean_pick_rate", mean(sumPick))
		b.push("meta_prior."+side.name+".mean_trend", mean(sumTrend))
	}
}

// --- block 6d: team embedding sum (2d) ---

func assembleEmbeddingSum(b *builder, r *draft.Record, attrs *champion.Map, bundle *assets.Bundle, d int) {
	for _, side := range []struct {
		name  string
		picks [5]int
	}{{"blue", r.BluePicks}, {"red", r.RedPicks}} {
		sum := make([]float64, d)
		if bundle != nil {
			for _, c := range side.picks {
				if c == draft.EmptyPick {
					continue
				}
				idx, ok := attrs.Index(c)
				if !ok {
					continue
				}
				row := bundle.EmbeddingRow(idx)
				for i := 0; i < d && i < len(row); i++ {
					sum[i] += row[i]
				}
			}
		}
		b.pushBlock("embedding_sum."+side.name, sum)
	}
}

// --- block 6e: ban context (4) ---

func assembleBanContext(b *builder, r *draft.Record, bundle *assets.Bundle) {
	banThreat := func(otherSideBans [5]int) float64 {
		var total float64
		if bundle == nil {
			return 0
		}
		for _, c := range otherSideBans {
			if c == draft.EmptyBan {
				continue
			}
			total += bundle.PriorFor(c).BaseWinrate - 0.5
		}
		return total
	}
	comfortRemoval := func(ourSideBans [5]int) float64 {
		return banThreat(ourSideBans) // same computation, different operand semantics
	}

	b.push("ban_context.blue.ban_threat", banThreat(r.RedBans))
	b.push("ban_context.blue.comfort_removal", comfortRemoval(r.BlueBans))
	b.push("ban_context.red.ban_threat", banThreat(r.BlueBans))
	b.push("ban_context.red.comfort_removal", comfortRemoval(r.RedBans))
}
