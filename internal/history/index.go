// Package history maintains the per-tier-group aggregates: champion win
// rate, same-team pair win rate (with z-score), and same-role cross-team
// matchup win rate. Builders are exclusive-writer; readers always see a
// complete snapshot, old or new, never a partially built one — the same
// "hold one reloadable pointer" idiom kihw-herald/internal/db/database.go
// uses for its database connection handle.
package history

import (
	"encoding/json"
	"math"
	"os"
	"sync"

	"github.com/herald-lol/draftlab/internal/draft"
)

type winGames struct {
	Wins  int `json:"wins"`
	Games int `json:"games"`
}

func (w winGames) rate() float64 {
	if w.Games == 0 {
		return 0
	}
	return float64(w.Wins) / float64(w.Games)
}

type pairKey struct {
	A, B int
}

func normalizedPair(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type matchupKey struct {
	Blue, Red int
	Role      draft.Role
}

// Snapshot is one immutable, fully-built tier-group index.
type Snapshot struct {
	TierGroup draft.TierGroup        `json:"tier_group"`
	Champ     map[int]winGames       `json:"champ"`
	Pair      map[pairKey]winGames   `json:"pair"`
	Matchup   map[matchupKey]winGames `json:"matchup"`

	minChampGames   int
	minPairGames    int
	minMatchupGames int
}

// jsonSnapshot is the serializable shape (map keys must be strings for JSON).
type jsonSnapshot struct {
	TierGroup draft.TierGroup        `json:"tier_group"`
	Champ     map[string]winGames    `json:"champ"`
	Pair      []pairEntry            `json:"pair"`
	Matchup   []matchupEntry         `json:"matchup"`
}

type pairEntry struct {
	A int      `json:"a"`
	B int      `json:"b"`
	W winGames `json:"w"`
}

type matchupEntry struct {
	Blue, Red int
	Role      draft.Role
	W         winGames
}

// Index holds the current snapshot for every tier group. Build computes a
// new snapshot off to the side and publishes it under a lock, so a reader
// calling Get concurrently with a rebuild always gets a complete snapshot,
// never a partially accumulated one. Construct with New; the zero value
// has no snapshot map and is not ready to use.
type Index struct {
	minChampGames, minPairGames, minMatchupGames int

	mu        sync.RWMutex
	snapshots map[draft.TierGroup]*Snapshot
}

// New creates an Index with the given minimum-support thresholds (these are
// configuration, not constants — defaults live in internal/config).
func New(minChampGames, minPairGames, minMatchupGames int) *Index {
	return &Index{
		minChampGames:   minChampGames,
		minPairGames:    minPairGames,
		minMatchupGames: minMatchupGames,
		snapshots:       make(map[draft.TierGroup]*Snapshot),
	}
}

// Build accumulates wins/games across the three aggregates for one tier
// group from a batch of match records and publishes the result. Rebuild is
// idempotent: calling Build twice with the same matches produces a
// byte-identical serialized snapshot (see Save). The accumulation itself
// runs unlocked against a private snapshot; only the final publish takes
// the write lock, so concurrent Get calls never block on the scan.
func (idx *Index) Build(matches []*draft.Record, group draft.TierGroup) {
	snap := &Snapshot{
		TierGroup:       group,
		Champ:           make(map[int]winGames),
		Pair:            make(map[pairKey]winGames),
		Matchup:         make(map[matchupKey]winGames),
		minChampGames:   idx.minChampGames,
		minPairGames:    idx.minPairGames,
		minMatchupGames: idx.minMatchupGames,
	}

	for _, m := range matches {
		if g, ok := m.Tier.Group(); !ok || g != group {
			continue
		}
		accumulateTeam(snap, m.BluePicks, m.BlueWin)
		accumulateTeam(snap, m.RedPicks, !m.BlueWin)
		accumulateMatchups(snap, m.BluePicks, m.RedPicks, m.BlueWin)
	}

	idx.mu.Lock()
	idx.snapshots[group] = snap
	idx.mu.Unlock()
}

func accumulateTeam(snap *Snapshot, picks [5]int, win bool) {
	for _, c := range picks {
		wg := snap.Champ[c]
		wg.Games++
		if win {
			wg.Wins++
		}
		snap.Champ[c] = wg
	}
	for i := 0; i < len(picks); i++ {
		for j := i + 1; j < len(picks); j++ {
			key := normalizedPair(picks[i], picks[j])
			wg := snap.Pair[key]
			wg.Games++
			if win {
				wg.Wins++
			}
			snap.Pair[key] = wg
		}
	}
}

func accumulateMatchups(snap *Snapshot, bluePicks, redPicks [5]int, blueWin bool) {
	for i, role := range draft.Roles {
		key := matchupKey{Blue: bluePicks[i], Red: redPicks[i], Role: role}
		wg := snap.Matchup[key]
		wg.Games++
		if blueWin {
			wg.Wins++
		}
		snap.Matchup[key] = wg
	}
}

// ChampWinRate returns the exposed win rate for a champion, requiring at
// least minChampGames games; ok is false below that floor.
func (s *Snapshot) ChampWinRate(champion int) (rate float64, ok bool) {
	wg, found := s.Champ[champion]
	if !found || wg.Games < s.minChampGames {
		return 0, false
	}
	return wg.rate(), true
}

// PairZScore returns the z-score of a same-team pair's observed win rate
// against the win rate expected from each champion's individual marginal
// rate, requiring at least minPairGames games.
func (s *Snapshot) PairZScore(a, b int) (z float64, ok bool) {
	key := normalizedPair(a, b)
	wg, found := s.Pair[key]
	if !found || wg.Games < s.minPairGames {
		return 0, false
	}
	observed := wg.rate()

	wrA, okA := s.ChampWinRate(a)
	wrB, okB := s.ChampWinRate(b)
	if !okA {
		wrA = 0.5
	}
	if !okB {
		wrB = 0.5
	}
	expected := (wrA + wrB) / 2
	n := float64(wg.Games)
	stderr := math.Sqrt(expected * (1 - expected) / n)
	if stderr == 0 {
		return 0, false
	}
	return (observed - expected) / stderr, true
}

// MatchupWinRate returns blue's observed win rate in a same-role cross-team
// matchup, requiring at least minMatchupGames games.
func (s *Snapshot) MatchupWinRate(blue, red int, role draft.Role) (rate float64, ok bool) {
	wg, found := s.Matchup[matchupKey{Blue: blue, Red: red, Role: role}]
	if !found || wg.Games < s.minMatchupGames {
		return 0, false
	}
	return wg.rate(), true
}

// Synergy returns the mean z-score over the C(5,2)=10 pairs in a team
// composition; 0 when any pair lacks support.
func (s *Snapshot) Synergy(teamChampions [5]int) float64 {
	var sum float64
	var n int
	for i := 0; i < len(teamChampions); i++ {
		for j := i + 1; j < len(teamChampions); j++ {
			z, ok := s.PairZScore(teamChampions[i], teamChampions[j])
			if !ok {
				return 0
			}
			sum += z
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// CounterAdvantage sums, over same-role pairs, (blue_matchup_wr - 0.5), with
// 0 contributed by undersampled cells.
func (s *Snapshot) CounterAdvantage(blue, red [5]int) float64 {
	var total float64
	for i, role := range draft.Roles {
		wr, ok := s.MatchupWinRate(blue[i], red[i], role)
		if !ok {
			continue
		}
		total += wr - 0.5
	}
	return total
}

// Get returns the current snapshot for a tier group, or nil if never built.
func (idx *Index) Get(group draft.TierGroup) *Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.snapshots[group]
}

// Save serializes every built snapshot to a single JSON blob keyed by tier
// group. Map iteration order for JSON output is made deterministic by
// sorting keys, so two builds from the same match set produce
// byte-identical output.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	out := make(map[draft.TierGroup]jsonSnapshot, len(idx.snapshots))
	for group, snap := range idx.snapshots {
		out[group] = toJSONSnapshot(snap)
	}
	idx.mu.RUnlock()

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Load reads a previously Saved index back in, reusing the configured
// thresholds on idx.
func (idx *Index) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	in := make(map[draft.TierGroup]jsonSnapshot)
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for group, js := range in {
		idx.snapshots[group] = fromJSONSnapshot(js, idx.minChampGames, idx.minPairGames, idx.minMatchupGames)
	}
	return nil
}

func toJSONSnapshot(s *Snapshot) jsonSnapshot {
	js := jsonSnapshot{TierGroup: s.TierGroup, Champ: make(map[string]winGames, len(s.Champ))}
	champIDs := sortedIntKeys(s.Champ)
	for _, id := range champIDs {
		js.Champ[itoa(id)] = s.Champ[id]
	}
	pairKeys := sortedPairKeys(s.Pair)
	for _, k := range pairKeys {
		js.Pair = append(js.Pair, pairEntry{A: k.A, B: k.B, W: s.Pair[k]})
	}
	matchupKeys := sortedMatchupKeys(s.Matchup)
	for _, k := range matchupKeys {
		js.Matchup = append(js.Matchup, matchupEntry{Blue: k.Blue, Red: k.Red, Role: k.Role, W: s.Matchup[k]})
	}
	return js
}

func fromJSONSnapshot(js jsonSnapshot, minChamp, minPair, minMatchup int) *Snapshot {
	s := &Snapshot{
		TierGroup:       js.TierGroup,
		Champ:           make(map[int]winGames, len(js.Champ)),
		Pair:            make(map[pairKey]winGames, len(js.Pair)),
		Matchup:         make(map[matchupKey]winGames, len(js.Matchup)),
		minChampGames:   minChamp,
		minPairGames:    minPair,
		minMatchupGames: minMatchup,
	}
	for idStr, wg := range js.Champ {
		s.Champ[atoi(idStr)] = wg
	}
	for _, e := range js.Pair {
		s.Pair[normalizedPair(e.A, e.B)] = e.W
	}
	for _, e := range js.Matchup {
		s.Matchup[matchupKey{Blue: e.Blue, Red: e.Red, Role: e.Role}] = e.W
	}
	return s
}
