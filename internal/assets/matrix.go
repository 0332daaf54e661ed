// Package assets implements the offline asset builder:
// per-tier per-patch lane matchup tables, champion embeddings, and meta
// priors consumed by the feature assembler's rich mode. Grounded on the
// teacher's meta_analytics_service.go (pick/ban rate + trend slope shape)
// and team_composition_service.go (pairwise synergy scoring shape).
package assets

import (
	"github.com/herald-lol/draftlab/internal/draft"
)

// RoleMatrix is one role's dense N×N matchup table: Delta[a][b] is the
// expected win-rate delta for champion a (blue) vs champion b (red) in that
// role, clipped to [-0.5, 0.5]; Support[a][b] is the number of same-role
// cross-team games backing that cell. Cells below MinSupport report 0.0
type RoleMatrix struct {
	Delta   [][]float32 `json:"delta"`
	Support [][]int32   `json:"support"`
}

func newRoleMatrix(n int) *RoleMatrix {
	delta := make([][]float32, n)
	support := make([][]int32, n)
	for i := range delta {
		delta[i] = make([]float32, n)
		support[i] = make([]int32, n)
	}
	return &RoleMatrix{Delta: delta, Support: support}
}

// Lookup returns the delta for (blueChampIdx, redChampIdx), or 0 if the cell
// is undersampled (support below minSupport).
func (m *RoleMatrix) Lookup(blueIdx, redIdx, minSupport int) float32 {
	if blueIdx < 0 || redIdx < 0 || blueIdx >= len(m.Delta) || redIdx >= len(m.Delta) {
		return 0
	}
	if int(m.Support[blueIdx][redIdx]) < minSupport {
		return 0
	}
	return m.Delta[blueIdx][redIdx]
}

// buildRoleMatrices accumulates win/game counts for each (champion_a,
// champion_b) same-role cross-team matchup across all five roles
// then converts to a clipped win-rate delta.
func buildRoleMatrices(matches []*draft.Record, n int, championIndex func(int) (int, bool), minSupport int) map[draft.Role]*RoleMatrix {
	wins := make(map[draft.Role][][]int32, len(draft.Roles))
	games := make(map[draft.Role][][]int32, len(draft.Roles))
	for _, role := range draft.Roles {
		wins[role] = make([][]int32, n)
		games[role] = make([][]int32, n)
		for i := range wins[role] {
			wins[role][i] = make([]int32, n)
			games[role][i] = make([]int32, n)
		}
	}

	for _, m := range matches {
		for i, role := range draft.Roles {
			blueIdx, ok1 := championIndex(m.BluePicks[i])
			redIdx, ok2 := championIndex(m.RedPicks[i])
			if !ok1 || !ok2 {
				continue
			}
			games[role][blueIdx][redIdx]++
			if m.BlueWin {
				wins[role][blueIdx][redIdx]++
			}
		}
	}

	out := make(map[draft.Role]*RoleMatrix, len(draft.Roles))
	for _, role := range draft.Roles {
		rm := newRoleMatrix(n)
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				g := games[role][a][b]
				rm.Support[a][b] = g
				if g == 0 {
					continue
				}
				wr := float64(wins[role][a][b]) / float64(g)
				delta := wr - 0.5
				if delta > 0.5 {
					delta = 0.5
				}
				if delta < -0.5 {
					delta = -0.5
				}
				if int(g) < minSupport {
					delta = 0
				}
				rm.Delta[a][b] = float32(delta)
			}
		}
		out[role] = rm
	}
	return out
}
