// Package meta computes per-patch champion popularity/win-rate aggregates
// served as an in-memory snapshot, rebuilt on demand by the context
// refresher rather than on the serving path.
package meta

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/herald-lol/draftlab/internal/draft"
)

// Config carries the aggregate service's two free parameters: how many
// games a champion needs before its win rate or trend point is trusted, and
// how many of the most recent patches the trend slope looks across.
type Config struct {
	MinSupport         int
	TrendWindowPatches int
}

// DefaultConfig mirrors the asset builder's defaults for the same concern.
func DefaultConfig() Config {
	return Config{MinSupport: 200, TrendWindowPatches: 3}
}

// Stat is one champion's aggregate for a snapshot's reference patch.
// WinRate and TrendSlope are nil ("null" rather than a misleading zero)
// when the champion's sample size falls short of MinSupport.
type Stat struct {
	ChampionID int      `json:"champion_id"`
	Games      int      `json:"games"`
	PickRate   float64  `json:"pick_rate"`
	BanRate    float64  `json:"ban_rate"`
	WinRate    *float64 `json:"win_rate,omitempty"`
	TrendSlope *float64 `json:"trend_slope,omitempty"`
}

// Snapshot is the full per-patch aggregate set for one tier group.
type Snapshot struct {
	TierGroup draft.TierGroup  `json:"tier_group"`
	Patch     string           `json:"patch"`
	Stats     map[int]Stat     `json:"stats"`
	BuiltAt   time.Time        `json:"built_at"`
}

// Lookup returns the stat for a champion id, or the zero Stat (both rate
// fields 0, both pointer fields nil) if it was never seen in the reference
// patch.
func (s *Snapshot) Lookup(championID int) Stat {
	if s == nil {
		return Stat{ChampionID: championID}
	}
	if st, ok := s.Stats[championID]; ok {
		return st
	}
	return Stat{ChampionID: championID}
}

// Build computes a Snapshot for group from records, as of records' most
// recent patch. Pick rate, ban rate, and games are always reported (they
// need no minimum-support gate — an appearance count can't lie). Win rate
// and trend slope fall back to nil when undersampled.
func Build(records []*draft.Record, group draft.TierGroup, cfg Config) *Snapshot {
	filtered := draft.FilterByTierGroup(records, group)

	byPatch := groupByPatch(filtered)
	patches := sortedPatchesDescending(byPatch)

	snapshot := &Snapshot{TierGroup: group, Stats: map[int]Stat{}, BuiltAt: time.Now()}
	if len(patches) == 0 {
		return snapshot
	}

	latest := patches[0]
	snapshot.Patch = latest
	current := byPatch[latest]

	windowSize := cfg.TrendWindowPatches
	if windowSize < 1 {
		windowSize = 1
	}
	if windowSize > len(patches) {
		windowSize = len(patches)
	}
	window := make([][]*draft.Record, windowSize)
	for i := 0; i < windowSize; i++ {
		// patches is newest-first; the trend slope wants oldest-first.
		window[windowSize-1-i] = byPatch[patches[i]]
	}
	perPatchWinRates := perPatchWinRates(window)

	picks, bans, wins, games, totalPicks := tallyCurrentPatch(current)

	champions := map[int]bool{}
	for c := range picks {
		champions[c] = true
	}
	for c := range bans {
		champions[c] = true
	}

	for c := range champions {
		stat := Stat{ChampionID: c, Games: games[c]}
		if totalPicks > 0 {
			stat.PickRate = float64(picks[c]) / float64(totalPicks)
		}
		if len(current) > 0 {
			stat.BanRate = float64(bans[c]) / float64(len(current))
		}
		if games[c] >= cfg.MinSupport {
			wr := float64(wins[c]) / float64(games[c])
			stat.WinRate = &wr
		}
		if slope, ok := trendSlope(perPatchWinRates, c, cfg.MinSupport); ok {
			stat.TrendSlope = &slope
		}
		snapshot.Stats[c] = stat
	}
	return snapshot
}

func groupByPatch(records []*draft.Record) map[string][]*draft.Record {
	byPatch := map[string][]*draft.Record{}
	for _, r := range records {
		byPatch[r.Patch] = append(byPatch[r.Patch], r)
	}
	return byPatch
}

func sortedPatchesDescending(byPatch map[string][]*draft.Record) []string {
	patches := make([]string, 0, len(byPatch))
	for p := range byPatch {
		patches = append(patches, p)
	}
	sort.Slice(patches, func(i, j int) bool { return patchLess(patches[j], patches[i]) })
	return patches
}

func patchLess(a, b string) bool {
	aSeason, aMinor := parsePatch(a)
	bSeason, bMinor := parsePatch(b)
	if aSeason != bSeason {
		return aSeason < bSeason
	}
	return aMinor < bMinor
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

func tallyCurrentPatch(records []*draft.Record) (picks, bans, wins, games map[int]int, totalPicks int) {
	picks, bans, wins, games = map[int]int{}, map[int]int{}, map[int]int{}, map[int]int{}
	for _, m := range records {
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
		}
	}
	return picks, bans, wins, games, totalPicks
}

// perPatchWinRates returns, for each patch in window (oldest first),
// champion id -> [wins, games] over that patch's records alone.
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
// index for champion c, using only patches where it has >= minSupport
// games. Reports ok=false (undersampled) when fewer than two qualifying
// patches exist.
func trendSlope(perPatch []map[int][2]int, c, minSupport int) (slope float64, ok bool) {
	type point struct{ x, y float64 }
	var pts []point
	for i, wg := range perPatch {
		v, present := wg[c]
		if !present || v[1] < minSupport {
			continue
		}
		pts = append(pts, point{x: float64(i), y: float64(v[0]) / float64(v[1])})
	}
	if len(pts) < 2 {
		return 0, false
	}

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
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}
