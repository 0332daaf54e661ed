package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
)

func testAttrs(t *testing.T) *champion.Map {
	t.Helper()
	raw := `{"champions": {
		"1": {"champion_id":1,"name":"A","role":"TOP","damage":"AD","engage":2,"hard_cc":1,"skill_cap":3,"scaling_early":1,"scaling_mid":2,"scaling_late":3},
		"2": {"champion_id":2,"name":"B","role":"JUNGLE","damage":"AP","engage":3,"hard_cc":2},
		"3": {"champion_id":3,"name":"C","role":"MID","damage":"AP"},
		"4": {"champion_id":4,"name":"D","role":"ADC","damage":"AD"},
		"5": {"champion_id":5,"name":"E","role":"SUPPORT","damage":"MIX","engage":3,"hard_cc":3},
		"6": {"champion_id":6,"name":"F","role":"TOP","damage":"AD"},
		"7": {"champion_id":7,"name":"G","role":"JUNGLE","damage":"AD"},
		"8": {"champion_id":8,"name":"H","role":"MID","damage":"AP"},
		"9": {"champion_id":9,"name":"I","role":"ADC","damage":"AD"},
		"10": {"champion_id":10,"name":"J","role":"SUPPORT","damage":"MIX"}
	}}`
	m, err := champion.LoadBytes([]byte(raw))
	require.NoError(t, err)
	return m
}

func fullRecord() *draft.Record {
	return &draft.Record{
		MatchID:   "m1",
		Patch:     "15.20",
		Tier:      draft.Gold,
		BluePicks: [5]int{1, 2, 3, 4, 5},
		RedPicks:  [5]int{6, 7, 8, 9, 10},
		BlueBans:  [5]int{-1, -1, -1, -1, -1},
		RedBans:   [5]int{-1, -1, -1, -1, -1},
		BlueWin:   true,
	}
}

func TestAssembleBasicDimAndFinite(t *testing.T) {
	attrs := testAttrs(t)
	r := fullRecord()

	res, err := Assemble(r, draft.GroupMid, attrs, nil, nil, Config{ReferenceSeason: 10, Mode: Basic})
	require.NoError(t, err)

	assert.Len(t, res.Vector, Dim(attrs.N(), 0, Basic))
	for i, v := range res.Vector {
		assert.False(t, math.IsNaN(v), "index %d is NaN", i)
		assert.False(t, math.IsInf(v, 0), "index %d is Inf", i)
	}
}

func TestAssembleRichDim(t *testing.T) {
	attrs := testAttrs(t)
	r := fullRecord()
	d := 8
	bundle := &assets.Bundle{EmbeddingDim: d}

	res, err := Assemble(r, draft.GroupMid, attrs, nil, bundle, Config{ReferenceSeason: 10, Mode: Rich})
	require.NoError(t, err)
	assert.Len(t, res.Vector, Dim(attrs.N(), d, Rich))
}

func TestUnknownChampionIsHardError(t *testing.T) {
	attrs := testAttrs(t)
	r := fullRecord()
	r.BluePicks[0] = 9999

	_, err := Assemble(r, draft.GroupMid, attrs, nil, nil, Config{Mode: Basic})
	assert.Error(t, err)
}

func TestEmptyBanContributesZeroBlock(t *testing.T) {
	attrs := testAttrs(t)
	r := fullRecord() // all bans empty

	res, err := Assemble(r, draft.GroupMid, attrs, nil, nil, Config{Mode: Basic})
	require.NoError(t, err)

	for name, v := range res.Named {
		if len(name) > 11 && name[:11] == "ban_onehot." {
			assert.Zero(t, v, name)
		}
	}
}

// TestCyclicRoleSwapInvariance verifies that permuting the five roles
// within a team in lock-step across both teams leaves the
// composition-block sub-vector identical (role
// one-hots reorder deterministically but sum-based composition does not
// depend on slot order).
func TestCyclicRoleSwapInvariance(t *testing.T) {
	attrs := testAttrs(t)
	r1 := fullRecord()

	r2 := fullRecord()
	r2.BluePicks = cyclicShift(r1.BluePicks)
	r2.RedPicks = cyclicShift(r1.RedPicks)

	res1, err := Assemble(r1, draft.GroupMid, attrs, nil, nil, Config{Mode: Basic})
	require.NoError(t, err)
	res2, err := Assemble(r2, draft.GroupMid, attrs, nil, nil, Config{Mode: Basic})
	require.NoError(t, err)

	for _, name := range []string{
		"composition.blue.ap_ad_ratio", "composition.blue.engage_sum",
		"composition.red.ap_ad_ratio", "composition.diff.engage_sum",
	} {
		assert.Equal(t, res1.Named[name], res2.Named[name], name)
	}
}

func cyclicShift(picks [5]int) [5]int {
	var out [5]int
	for i := range picks {
		out[i] = picks[(i+1)%5]
	}
	return out
}

func TestSideSwapSymmetryOfCompositionBlock(t *testing.T) {
	attrs := testAttrs(t)
	r := fullRecord()
	swapped := r.Swapped()

	res1, err := Assemble(r, draft.GroupMid, attrs, nil, nil, Config{Mode: Basic})
	require.NoError(t, err)
	res2, err := Assemble(swapped, draft.GroupMid, attrs, nil, nil, Config{Mode: Basic})
	require.NoError(t, err)

	assert.Equal(t, res1.Named["composition.blue.engage_sum"], res2.Named["composition.red.engage_sum"])
	assert.Equal(t, res1.Named["composition.red.engage_sum"], res2.Named["composition.blue.engage_sum"])
	assert.Equal(t, res1.Named["composition.diff.engage_sum"], -res2.Named["composition.diff.engage_sum"])
}

func TestPartialDraftEmptySlotLowersRoleBalance(t *testing.T) {
	attrs := testAttrs(t)
	r := fullRecord()
	r.BluePicks[4] = draft.EmptyPick // support not yet picked

	res, err := Assemble(r, draft.GroupMid, attrs, nil, nil, Config{Mode: Basic})
	require.NoError(t, err)
	assert.Less(t, res.Named["composition.blue.role_balance"], 1.0)
}
