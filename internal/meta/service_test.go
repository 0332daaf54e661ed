package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/draftlab/internal/draft"
)

func genRecord(patch string, blueWins int, idx int) *draft.Record {
	return &draft.Record{
		MatchID:   patch + "-" + string(rune('a'+idx)),
		Patch:     patch,
		Tier:      draft.Gold,
		BluePicks: [5]int{1, 100, 101, 102, 103},
		RedPicks:  [5]int{200, 201, 202, 203, 204},
		BlueBans:  [5]int{300, -1, -1, -1, -1},
		RedBans:   [5]int{-1, -1, -1, -1, -1},
		BlueWin:   idx < blueWins,
	}
}

func genPatchMatches(patch string, games, blueWins int) []*draft.Record {
	out := make([]*draft.Record, games)
	for i := 0; i < games; i++ {
		out[i] = genRecord(patch, blueWins, i)
	}
	return out
}

func TestBuildEmptyRecordsReturnsEmptySnapshot(t *testing.T) {
	snapshot := Build(nil, draft.GroupMid, DefaultConfig())
	require.NotNil(t, snapshot)
	assert.Empty(t, snapshot.Stats)
	assert.Equal(t, "", snapshot.Patch)
}

func TestBuildUndersampledChampionReportsNilWinRateAndTrend(t *testing.T) {
	var records []*draft.Record
	records = append(records, genPatchMatches("15.20", 10, 10)...) // champion 1 wins all 10

	snapshot := Build(records, draft.GroupMid, Config{MinSupport: 50, TrendWindowPatches: 3})
	stat := snapshot.Lookup(1)
	assert.Nil(t, stat.WinRate, "10 games is below the 50-game support floor")
	assert.Nil(t, stat.TrendSlope)
	assert.Equal(t, 10, stat.Games)
}

func TestBuildWellSampledChampionReportsIncreasingTrend(t *testing.T) {
	var records []*draft.Record
	records = append(records, genPatchMatches("15.18", 4, 1)...) // 25% win rate
	records = append(records, genPatchMatches("15.19", 4, 2)...) // 50% win rate
	records = append(records, genPatchMatches("15.20", 4, 3)...) // 75% win rate

	snapshot := Build(records, draft.GroupMid, Config{MinSupport: 2, TrendWindowPatches: 3})
	require.Equal(t, "15.20", snapshot.Patch, "the latest patch present becomes the reference patch")

	stat := snapshot.Lookup(1)
	require.NotNil(t, stat.WinRate)
	assert.InDelta(t, 0.75, *stat.WinRate, 1e-9)
	require.NotNil(t, stat.TrendSlope)
	assert.Greater(t, *stat.TrendSlope, 0.0, "win rate climbed each patch, so the slope must be positive")
}

func TestBuildPickAndBanRatesAreAppearanceRatios(t *testing.T) {
	records := genPatchMatches("15.20", 6, 3)

	snapshot := Build(records, draft.GroupMid, Config{MinSupport: 1, TrendWindowPatches: 1})

	champ1 := snapshot.Lookup(1)
	assert.InDelta(t, 1.0/10.0, champ1.PickRate, 1e-9, "champion 1 appears once per game out of 10 pick slots")

	banned := snapshot.Lookup(300)
	assert.InDelta(t, 1.0, banned.BanRate, 1e-9, "champion 300 is banned in every one of the 6 games")

	neverSeen := snapshot.Lookup(999)
	assert.Equal(t, 0, neverSeen.Games)
	assert.Nil(t, neverSeen.WinRate)
}

func TestBuildFiltersByTierGroup(t *testing.T) {
	records := genPatchMatches("15.20", 4, 4)
	for _, r := range records {
		r.Tier = draft.Iron // maps to GroupLow
	}

	snapshot := Build(records, draft.GroupHigh, DefaultConfig())
	assert.Empty(t, snapshot.Stats, "low-tier matches must not populate a high-group snapshot")
}
