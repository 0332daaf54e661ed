package assets

import (
	"sort"

	"github.com/herald-lol/draftlab/internal/draft"
)

// Prior is the per-champion meta prior reported alongside a bundle.
type Prior struct {
	BaseWinrate float64 `json:"base_winrate"`
	PickRate    float64 `json:"pick_rate"`
	BanRate     float64 `json:"ban_rate"`
	Trend3Patch float64 `json:"trend_3patch"` // signed slope over the last 3 patches with sufficient support
}

// buildPriors computes pick_rate, ban_rate, and base_winrate for the target
// patch's matches, and a 3-patch trend slope from the window of preceding
// patches' matches. minSupport gates base_winrate, falling back to 0.5
// below it.
func buildPriors(currentPatch []*draft.Record, trendWindow [][]*draft.Record, minSupport int) map[int]Prior {
	wins := map[int]int{}
	games := map[int]int{}
	picks := map[int]int{}
	bans := map[int]int{}
	totalPicks := 0
	totalBans := 0

	for _, m := range currentPatch {
		for _, c := range m.BluePicks {
			picks[c]++
			totalPicks++
			games[c]++
			if m.BlueWin {
				wins[c]++
			}
		}
		for _, c := range m.RedPicks {
			picks[c]++
			totalPicks++
			games[c]++
			if !m.BlueWin {
				wins[c]++
			}
		}
		for _, c := range append(append([]int{}, m.BlueBans[:]...), m.RedBans[:]...) {
			if c == draft.EmptyBan {
				continue
			}
			bans[c]++
			totalBans++
		}
	}

	champions := map[int]bool{}
	for c := range picks {
		champions[c] = true
	}
	for c := range bans {
		champions[c] = true
	}

	trendRates := perPatchWinRates(trendWindow)

	out := make(map[int]Prior, len(champions))
	for c := range champions {
		p := Prior{}
		if totalPicks > 0 {
			p.PickRate = float64(picks[c]) / float64(totalPicks)
		}
		if totalBans > 0 {
			p.BanRate = float64(bans[c]) / float64(totalBans)
		}
		if games[c] >= minSupport {
			p.BaseWinrate = float64(wins[c]) / float64(games[c])
		} else {
			p.BaseWinrate = 0.5
		}
		p.Trend3Patch = trendSlope(trendRates, c, minSupport)
		out[c] = p
	}
	return out
}

// perPatchWinRates computes, for each patch window entry, every champion's
// (wins, games) pair, preserving input order (oldest to newest).
func perPatchWinRates(window [][]*draft.Record) []map[int][2]int {
	out := make([]map[int][2]int, len(window))
	for i, matches := range window {
		wg := map[int][2]int{}
		for _, m := range matches {
			for _, c := range m.BluePicks {
				v := wg[c]
				v[1]++
				if m.BlueWin {
					v[0]++
				}
				wg[c] = v
			}
			for _, c := range m.RedPicks {
				v := wg[c]
				v[1]++
				if !m.BlueWin {
					v[0]++
				}
				wg[c] = v
			}
		}
		out[i] = wg
	}
	return out
}

// trendSlope computes a signed least-squares slope of win rate over patch
// index for champion c, using only patches where it has >= minSupport games.
// Returns 0 when fewer than two qualifying patches exist.
func trendSlope(perPatch []map[int][2]int, c, minSupport int) float64 {
	type point struct {
		x, y float64
	}
	var pts []point
	for i, wg := range perPatch {
		v, ok := wg[c]
		if !ok || v[1] < minSupport {
			continue
		}
		pts = append(pts, point{x: float64(i), y: float64(v[0]) / float64(v[1])})
	}
	if len(pts) < 2 {
		return 0
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(pts))
	for _, p := range pts {
		sumX += p.x
		sumY += p.y
		sumXY += p.x * p.y
		sumXX += p.x * p.x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
