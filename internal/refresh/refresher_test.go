package refresh

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/meta"
)

func testAttrs(t *testing.T) *champion.Map {
	t.Helper()
	champs := make(map[string]interface{}, 10)
	roles := []string{"TOP", "JUNGLE", "MID", "ADC", "SUPPORT"}
	for i := 1; i <= 10; i++ {
		champs[fmt.Sprintf("%d", i)] = map[string]interface{}{
			"champion_id": i, "name": fmt.Sprintf("C%d", i), "role": roles[(i-1)%5], "damage": "AD",
		}
	}
	raw, err := json.Marshal(map[string]interface{}{"champions": champs})
	require.NoError(t, err)
	m, err := champion.LoadBytes(raw)
	require.NoError(t, err)
	return m
}

func genMatches(patch string, n int, tier draft.Tier) []*draft.Record {
	out := make([]*draft.Record, n)
	for i := 0; i < n; i++ {
		out[i] = &draft.Record{
			MatchID:   fmt.Sprintf("%s-%d", patch, i),
			Patch:     patch,
			Tier:      tier,
			BluePicks: [5]int{1, 2, 3, 4, 5},
			RedPicks:  [5]int{6, 7, 8, 9, 10},
			BlueBans:  [5]int{-1, -1, -1, -1, -1},
			RedBans:   [5]int{-1, -1, -1, -1, -1},
			BlueWin:   i%2 == 0,
		}
	}
	return out
}

func testRefresher(t *testing.T) *Refresher {
	attrs := testAttrs(t)
	return New(attrs,
		HistoryConfig{MinChampGames: 1, MinPairGames: 1, MinMatchupGames: 1},
		assets.Config{MinMatchupSupport: 1, MinPriorSupport: 1, EmbeddingDim: 4, TrendPatchWindow: 2},
		meta.Config{MinSupport: 1, TrendWindowPatches: 2},
	)
}

func TestCurrentIsNilBeforeFirstRefresh(t *testing.T) {
	r := testRefresher(t)
	assert.Nil(t, r.Current())
}

func TestRefreshPublishesAllThreeAggregatesForAPopulatedGroup(t *testing.T) {
	r := testRefresher(t)
	records := genMatches("15.20", 20, draft.Gold) // Gold -> GroupMid

	snap, err := r.Refresh(records)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.NotNil(t, snap.History.Get(draft.GroupMid))
	assert.NotNil(t, snap.Meta[draft.GroupMid])
	require.NotNil(t, snap.Assets[draft.GroupMid])
	assert.Equal(t, "15.20", snap.Assets[draft.GroupMid].Patch)

	assert.Same(t, snap, r.Current())
}

func TestRefreshLeavesUnpopulatedGroupsOutOfAssets(t *testing.T) {
	r := testRefresher(t)
	records := genMatches("15.20", 10, draft.Gold) // only GroupMid has data

	snap, err := r.Refresh(records)
	require.NoError(t, err)

	_, hasLow := snap.Assets[draft.GroupLow]
	_, hasHigh := snap.Assets[draft.GroupHigh]
	assert.False(t, hasLow)
	assert.False(t, hasHigh)
}

func TestRefreshIsAtomicUnderConcurrentReaders(t *testing.T) {
	r := testRefresher(t)
	first := genMatches("15.19", 10, draft.Gold)
	_, err := r.Refresh(first)
	require.NoError(t, err)

	second := genMatches("15.20", 10, draft.Gold)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := r.Current()
			require.NotNil(t, snap)
			// Whichever snapshot is observed, it is a fully published one:
			// its GroupMid asset bundle is present.
			_, ok := snap.Assets[draft.GroupMid]
			assert.True(t, ok)
		}()
	}
	_, err = r.Refresh(second)
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, "15.20", r.Current().Assets[draft.GroupMid].Patch)
}

func TestSplitByPatchPicksLatestAndOrdersWindowOldestFirst(t *testing.T) {
	var records []*draft.Record
	records = append(records, genMatches("15.18", 3, draft.Gold)...)
	records = append(records, genMatches("15.19", 3, draft.Gold)...)
	records = append(records, genMatches("15.20", 3, draft.Gold)...)

	latest, current, window := splitByPatch(records, 2)
	assert.Equal(t, "15.20", latest)
	assert.Len(t, current, 3)
	require.Len(t, window, 2)
	assert.Equal(t, "15.19", window[0][0].Patch)
	assert.Equal(t, "15.20", window[1][0].Patch)
}
