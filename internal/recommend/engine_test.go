package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/features"
	"github.com/herald-lol/draftlab/internal/model"
)

type fakeRegistry struct {
	artifact *model.Artifact
	err      error
}

func (f *fakeRegistry) Get(tierGroup draft.TierGroup) (*model.Artifact, error) {
	return f.artifact, f.err
}

func testAttrs(t *testing.T) *champion.Map {
	t.Helper()
	champs := make(map[string]interface{}, 10)
	roles := []string{"TOP", "JUNGLE", "MID", "ADC", "SUPPORT"}
	for i := 1; i <= 10; i++ {
		champs[fmt.Sprintf("%d", i)] = map[string]interface{}{
			"champion_id": i, "name": fmt.Sprintf("C%d", i), "role": roles[(i-1)%5], "damage": "AD", "skill_cap": 1,
		}
	}
	raw, err := json.Marshal(map[string]interface{}{"champions": champs})
	require.NoError(t, err)
	m, err := champion.LoadBytes(raw)
	require.NoError(t, err)
	return m
}

// firstFeatureArtifact builds a LinearModel whose raw score is driven
// entirely by whether the champion at champ_index 0 occupies the blue TOP
// slot (vector position 0 in the basic layout), plus a Platt calibrator
// with A=1, B=0, so calibrated probability is sigmoid(raw probability).
func firstFeatureArtifact(t *testing.T, attrs *champion.Map) *model.Artifact {
	t.Helper()
	dim := features.Dim(attrs.N(), 0, features.Basic)
	weights := make([]float64, dim)
	mean := make([]float64, dim)
	std := make([]float64, dim)
	for i := range std {
		std[i] = 1
	}
	weights[0] = 1
	classifier := &model.LinearModel{
		Weights: weights, Bias: 0,
		FeatVer: features.FeatureVersion(attrs.N(), 0, features.Basic),
		Mean:    mean, StdDev: std,
	}
	calibrator := &model.PlattCalibrator{A: 1, B: 0}
	return &model.Artifact{Classifier: classifier, Calibrator: calibrator, Card: model.Card{ArtifactID: "a1"}}
}

func flatBias() BiasConfig {
	return BiasConfig{MaxPickCandidates: 10, MaxBanCandidates: 10, TopN: 10}
}

func partialBlueTopOpen() *draft.Record {
	return &draft.Record{
		MatchID:   "partial",
		Patch:     "15.20",
		Tier:      draft.Gold,
		BluePicks: [5]int{draft.EmptyPick, 2, 3, 4, 5},
		RedPicks:  [5]int{6, 7, 8, 9, 10},
		BlueBans:  [5]int{-1, -1, -1, -1, -1},
		RedBans:   [5]int{-1, -1, -1, -1, -1},
	}
}

func TestRecommendPicksFillsTheOpenRoleSlot(t *testing.T) {
	attrs := testAttrs(t)
	artifact := firstFeatureArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, flatBias())

	result, err := engine.Recommend(context.Background(), partialBlueTopOpen(), draft.GroupMid, Blue, PickMode, nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Candidates)
	assert.False(t, result.Partial)
	for _, c := range result.Candidates {
		assert.Equal(t, draft.Top, c.Role, "every pick candidate must fill the open TOP slot")
		attrs, ok := attrs.Lookup(c.ChampionID)
		require.True(t, ok)
		assert.Equal(t, "TOP", string(attrs.Role))
	}
}

func TestRecommendPicksRanksTheHighestDeltaCandidateFirst(t *testing.T) {
	attrs := testAttrs(t)
	artifact := firstFeatureArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, flatBias())

	// Red's TOP slot is left open too, so champion 6 is still free to pick.
	record := partialBlueTopOpen()
	record.RedPicks[0] = draft.EmptyPick

	result, err := engine.Recommend(context.Background(), record, draft.GroupMid, Blue, PickMode, nil, nil)
	require.NoError(t, err)
	candidates := result.Candidates
	require.Len(t, candidates, 2, "only champion 1 and champion 6 are tagged TOP")

	// Champion 1 sits at champ_index 0, the only index the test artifact's
	// weights reward, so it must outrank champion 6 and strictly improve on
	// the no-op baseline.
	assert.Equal(t, 1, candidates[0].ChampionID)
	assert.Equal(t, 6, candidates[1].ChampionID)
	assert.Greater(t, candidates[0].Score, candidates[1].Score)
	assert.Greater(t, candidates[0].RawDelta, 0.0)
}

func TestRecommendPicksExcludeAlreadyPickedOrBanned(t *testing.T) {
	attrs := testAttrs(t)
	artifact := firstFeatureArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, flatBias())

	record := partialBlueTopOpen()
	record.BlueBans[0] = 1 // champion 1 banned

	result, err := engine.Recommend(context.Background(), record, draft.GroupMid, Blue, PickMode, nil, nil)
	require.NoError(t, err)
	candidates := result.Candidates
	for _, c := range candidates {
		assert.NotEqual(t, 1, c.ChampionID, "banned champions must not appear as pick candidates")
	}

	seen := make(map[int]bool)
	for _, c := range candidates {
		assert.False(t, seen[c.ChampionID], "no champion should be recommended twice")
		seen[c.ChampionID] = true
	}
}

func TestRecommendPickNoOpenSlotReturnsError(t *testing.T) {
	attrs := testAttrs(t)
	artifact := firstFeatureArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, flatBias())

	full := &draft.Record{
		MatchID:   "full",
		Patch:     "15.20",
		Tier:      draft.Gold,
		BluePicks: [5]int{1, 2, 3, 4, 5},
		RedPicks:  [5]int{6, 7, 8, 9, 10},
		BlueBans:  [5]int{-1, -1, -1, -1, -1},
		RedBans:   [5]int{-1, -1, -1, -1, -1},
	}

	_, err := engine.Recommend(context.Background(), full, draft.GroupMid, Blue, PickMode, nil, nil)
	assert.Error(t, err)
}

func TestRecommendBansExcludeAlreadyPickedOrBanned(t *testing.T) {
	attrs := testAttrs(t)
	artifact := firstFeatureArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, flatBias())

	record := partialBlueTopOpen()
	record.BlueBans[0] = 9

	result, err := engine.Recommend(context.Background(), record, draft.GroupMid, Blue, BanMode, nil, nil)
	require.NoError(t, err)
	candidates := result.Candidates
	for _, c := range candidates {
		assert.NotEqual(t, 9, c.ChampionID)
		for _, picked := range record.RedPicks {
			assert.NotEqual(t, picked, c.ChampionID)
		}
	}
	seen := make(map[int]bool)
	for _, c := range candidates {
		assert.False(t, seen[c.ChampionID])
		seen[c.ChampionID] = true
	}
}

func TestRecommendBanNoOpenBanSlotReturnsError(t *testing.T) {
	attrs := testAttrs(t)
	artifact := firstFeatureArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, flatBias())

	record := partialBlueTopOpen()
	record.BlueBans = [5]int{9, 8, 7, 6, 5} // no free ban slot

	_, err := engine.Recommend(context.Background(), record, draft.GroupMid, Blue, BanMode, nil, nil)
	assert.Error(t, err)
}

func TestRecommendDeadlineExceededReturnsPartialInsteadOfError(t *testing.T) {
	attrs := testAttrs(t)
	artifact := firstFeatureArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, flatBias())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.Recommend(ctx, partialBlueTopOpen(), draft.GroupMid, Blue, PickMode, nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Partial)
	assert.Empty(t, result.Candidates)
}

func TestRecommendUnknownModeReturnsError(t *testing.T) {
	attrs := testAttrs(t)
	artifact := firstFeatureArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, flatBias())

	_, err := engine.Recommend(context.Background(), partialBlueTopOpen(), draft.GroupMid, Blue, Mode("invalid"), nil, nil)
	assert.Error(t, err)
}
