package assets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
)

func testChampionMap(t *testing.T) *champion.Map {
	t.Helper()
	raw := `{"champions": {
		"1": {"champion_id":1,"name":"A","role":"TOP","damage":"AD"},
		"2": {"champion_id":2,"name":"B","role":"JUNGLE","damage":"AP"},
		"3": {"champion_id":3,"name":"C","role":"MID","damage":"AP"},
		"4": {"champion_id":4,"name":"D","role":"ADC","damage":"AD"},
		"5": {"champion_id":5,"name":"E","role":"SUPPORT","damage":"MIX"},
		"6": {"champion_id":6,"name":"F","role":"TOP","damage":"AD"},
		"7": {"champion_id":7,"name":"G","role":"JUNGLE","damage":"AP"},
		"8": {"champion_id":8,"name":"H","role":"MID","damage":"AP"},
		"9": {"champion_id":9,"name":"I","role":"ADC","damage":"AD"},
		"10": {"champion_id":10,"name":"J","role":"SUPPORT","damage":"MIX"}
	}, "meta": {"patch": "15.20", "total_champions": 10}}`
	m, err := champion.LoadBytes([]byte(raw))
	require.NoError(t, err)
	return m
}

func genMatches(n int) []*draft.Record {
	var out []*draft.Record
	for i := 0; i < n; i++ {
		out = append(out, &draft.Record{
			MatchID:   "m",
			Tier:      draft.Gold,
			Patch:     "15.20",
			BluePicks: [5]int{1, 2, 3, 4, 5},
			RedPicks:  [5]int{6, 7, 8, 9, 10},
			BlueBans:  [5]int{-1, -1, -1, -1, -1},
			RedBans:   [5]int{-1, -1, -1, -1, -1},
			BlueWin:   i%2 == 0,
		})
	}
	return out
}

func TestBuildAndSaveLoad(t *testing.T) {
	champMap := testChampionMap(t)
	matches := genMatches(250)

	cfg := Config{MinMatchupSupport: 200, MinPriorSupport: 50, EmbeddingDim: 8, TrendPatchWindow: 3}
	bundle, err := Build(champMap, matches, nil, draft.GroupMid, "15.20", cfg)
	require.NoError(t, err)
	require.Len(t, bundle.Embedding, champMap.N())
	require.Len(t, bundle.Embedding[0], 8)

	blueIdx, _ := champMap.Index(1)
	redIdx, _ := champMap.Index(6)
	score := bundle.MatchupScore(draft.Top, blueIdx, redIdx)
	assert.InDelta(t, 0.0, score, 1e-6, "50/50 win rate should clip to ~0 delta")

	dir := filepath.Join(t.TempDir(), "mid", "15.20")
	require.NoError(t, bundle.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, bundle.Patch, loaded.Patch)
	assert.Equal(t, bundle.EmbeddingDim, loaded.EmbeddingDim)
}

func TestUndersampledCellReportsZero(t *testing.T) {
	champMap := testChampionMap(t)
	matches := genMatches(5) // below default 200 support threshold

	cfg := Config{MinMatchupSupport: 200, MinPriorSupport: 500, EmbeddingDim: 8}
	bundle, err := Build(champMap, matches, nil, draft.GroupMid, "15.20", cfg)
	require.NoError(t, err)

	blueIdx, _ := champMap.Index(1)
	redIdx, _ := champMap.Index(6)
	assert.Equal(t, float32(0), bundle.MatchupScore(draft.Top, blueIdx, redIdx))

	assert.Equal(t, 0.5, bundle.PriorFor(1).BaseWinrate, "below min_prior_support falls back to 0.5")
}
