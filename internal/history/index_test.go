package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/draftlab/internal/draft"
)

func sampleMatches() []*draft.Record {
	var out []*draft.Record
	for i := 0; i < 10; i++ {
		win := i%3 != 0
		out = append(out, &draft.Record{
			MatchID:   "m" + itoa(i),
			Tier:      draft.Gold,
			BluePicks: [5]int{1, 2, 3, 4, 5},
			RedPicks:  [5]int{6, 7, 8, 9, 10},
			BlueBans:  [5]int{-1, -1, -1, -1, -1},
			RedBans:   [5]int{-1, -1, -1, -1, -1},
			BlueWin:   win,
		})
	}
	return out
}

func TestBuildAndQuery(t *testing.T) {
	idx := New(3, 3, 3)
	idx.Build(sampleMatches(), draft.GroupMid)

	snap := idx.Get(draft.GroupMid)
	require.NotNil(t, snap)

	wr, ok := snap.ChampWinRate(1)
	assert.True(t, ok)
	assert.InDelta(t, 6.0/10.0, wr, 1e-9)

	_, ok = snap.ChampWinRate(999)
	assert.False(t, ok)

	z, ok := snap.PairZScore(1, 2)
	assert.True(t, ok)
	_ = z

	// Every blue pair always plays together, so each pair's observed rate
	// equals both champions' marginal rates and every z-score is 0.
	synergy := snap.Synergy([5]int{1, 2, 3, 4, 5})
	assert.InDelta(t, 0.0, synergy, 1e-9)

	adv := snap.CounterAdvantage([5]int{1, 2, 3, 4, 5}, [5]int{6, 7, 8, 9, 10})
	assert.InDelta(t, 5*(0.6-0.5), adv, 1e-9)
}

func TestSaveLoadIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")

	idx1 := New(3, 3, 3)
	idx1.Build(sampleMatches(), draft.GroupMid)
	require.NoError(t, idx1.Save(path))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	idx2 := New(3, 3, 3)
	idx2.Build(sampleMatches(), draft.GroupMid)
	require.NoError(t, idx2.Save(path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "rebuilding from the same match set must be byte-identical")
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")

	idx1 := New(3, 3, 3)
	idx1.Build(sampleMatches(), draft.GroupMid)
	require.NoError(t, idx1.Save(path))

	idx2 := New(3, 3, 3)
	require.NoError(t, idx2.Load(path))

	snap1 := idx1.Get(draft.GroupMid)
	snap2 := idx2.Get(draft.GroupMid)
	require.NotNil(t, snap2)

	wr1, _ := snap1.ChampWinRate(1)
	wr2, _ := snap2.ChampWinRate(1)
	assert.Equal(t, wr1, wr2)
}
