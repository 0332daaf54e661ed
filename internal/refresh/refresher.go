// Package refresh rebuilds the history index, meta/trend snapshots, and
// per-tier-group assets from a fresh match batch, publishing the result as
// one atomically-swapped snapshot so serving-path readers never observe a
// partially rebuilt context.
package refresh

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/history"
	"github.com/herald-lol/draftlab/internal/meta"
)

// Snapshot is the full serving-path context as of one rebuild: the history
// index, one meta snapshot per tier group (empty for a group with no
// matches), and one asset bundle per tier group that had any matches.
type Snapshot struct {
	History *history.Index
	Meta    map[draft.TierGroup]*meta.Snapshot
	Assets  map[draft.TierGroup]*assets.Bundle
	BuiltAt time.Time
}

// HistoryConfig holds the history index's minimum-support thresholds.
type HistoryConfig struct {
	MinChampGames   int
	MinPairGames    int
	MinMatchupGames int
}

// Refresher owns the live Snapshot pointer and knows how to build a new one
// from a match batch. Safe for concurrent Current() calls during a Refresh.
type Refresher struct {
	attrs      *champion.Map
	historyCfg HistoryConfig
	assetCfg   assets.Config
	metaCfg    meta.Config

	current atomic.Pointer[Snapshot]
}

// New builds a Refresher. Current() returns nil until the first Refresh.
func New(attrs *champion.Map, historyCfg HistoryConfig, assetCfg assets.Config, metaCfg meta.Config) *Refresher {
	return &Refresher{attrs: attrs, historyCfg: historyCfg, assetCfg: assetCfg, metaCfg: metaCfg}
}

// Current returns the most recently published snapshot, or nil if Refresh
// has never succeeded.
func (r *Refresher) Current() *Snapshot {
	return r.current.Load()
}

// Refresh builds a new snapshot from records into a private shadow
// structure and publishes it with a single atomic store — concurrent
// Current() calls either see the prior snapshot in full or the new one in
// full, never a mix. A tier group with no matches in records is simply
// absent from the new snapshot's Assets map (its Meta entry is an empty
// snapshot) rather than erroring the whole refresh.
func (r *Refresher) Refresh(records []*draft.Record) (*Snapshot, error) {
	idx := history.New(r.historyCfg.MinChampGames, r.historyCfg.MinPairGames, r.historyCfg.MinMatchupGames)

	metaSnapshots := make(map[draft.TierGroup]*meta.Snapshot, len(draft.AllTierGroups))
	assetBundles := make(map[draft.TierGroup]*assets.Bundle, len(draft.AllTierGroups))

	for _, group := range draft.AllTierGroups {
		idx.Build(records, group)
		metaSnapshots[group] = meta.Build(records, group, r.metaCfg)

		filtered := draft.FilterByTierGroup(records, group)
		currentPatch, currentMatches, window := splitByPatch(filtered, r.assetCfg.TrendPatchWindow)
		if currentPatch == "" {
			continue
		}
		bundle, err := assets.Build(r.attrs, currentMatches, window, group, currentPatch, r.assetCfg)
		if err != nil {
			return nil, fmt.Errorf("refresh: building assets for %s: %w", group, err)
		}
		assetBundles[group] = bundle
	}

	snap := &Snapshot{History: idx, Meta: metaSnapshots, Assets: assetBundles, BuiltAt: time.Now()}
	r.current.Store(snap)
	return snap, nil
}

// splitByPatch groups records by patch and returns the latest patch found,
// that patch's own records, and a trend window of up to windowSize patches
// (oldest first, the latest patch included as the last element) — the
// shape assets.Build expects for its priors step.
func splitByPatch(records []*draft.Record, windowSize int) (latest string, current []*draft.Record, window [][]*draft.Record) {
	byPatch := map[string][]*draft.Record{}
	for _, r := range records {
		byPatch[r.Patch] = append(byPatch[r.Patch], r)
	}
	if len(byPatch) == 0 {
		return "", nil, nil
	}

	patches := make([]string, 0, len(byPatch))
	for p := range byPatch {
		patches = append(patches, p)
	}
	sort.Slice(patches, func(i, j int) bool { return patchLess(patches[j], patches[i]) }) // descending

	if windowSize < 1 {
		windowSize = 1
	}
	if windowSize > len(patches) {
		windowSize = len(patches)
	}

	window = make([][]*draft.Record, windowSize)
	for i := 0; i < windowSize; i++ {
		window[windowSize-1-i] = byPatch[patches[i]]
	}

	return patches[0], byPatch[patches[0]], window
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
