package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/errs"
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
			"champion_id": i, "name": fmt.Sprintf("C%d", i), "role": roles[(i-1)%5], "damage": "AD",
		}
	}
	raw, err := json.Marshal(map[string]interface{}{"champions": champs})
	require.NoError(t, err)
	m, err := champion.LoadBytes(raw)
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
	}
}

func testArtifact(t *testing.T, attrs *champion.Map) *model.Artifact {
	t.Helper()
	dim := features.Dim(attrs.N(), 0, features.Basic)
	weights := make([]float64, dim)
	mean := make([]float64, dim)
	std := make([]float64, dim)
	for i := range weights {
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

func TestPredictFullDraftReturnsCalibratedProbability(t *testing.T) {
	attrs := testAttrs(t)
	artifact := testArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, NewResultCache(4, time.Minute), 3)

	pred, err := engine.Predict(context.Background(), fullRecord(), draft.GroupMid, nil, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.CalibratedProbability, 0.0)
	assert.LessOrEqual(t, pred.CalibratedProbability, 1.0)
	assert.GreaterOrEqual(t, pred.Confidence, 0.0)
	assert.LessOrEqual(t, pred.Confidence, 100.0)
}

func TestPredictEmptyDraftStillProducesAPrediction(t *testing.T) {
	attrs := testAttrs(t)
	artifact := testArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, NewResultCache(4, time.Minute), 3)

	empty := &draft.Record{
		MatchID:   "empty",
		Patch:     "15.20",
		Tier:      draft.Gold,
		BluePicks: [5]int{draft.EmptyPick, draft.EmptyPick, draft.EmptyPick, draft.EmptyPick, draft.EmptyPick},
		RedPicks:  [5]int{draft.EmptyPick, draft.EmptyPick, draft.EmptyPick, draft.EmptyPick, draft.EmptyPick},
		BlueBans:  [5]int{-1, -1, -1, -1, -1},
		RedBans:   [5]int{-1, -1, -1, -1, -1},
	}

	pred, err := engine.Predict(context.Background(), empty, draft.GroupMid, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pred.RawProbability, 1e-6, "with the blue TOP slot empty the only weighted feature is 0, so the raw score sits at the sigmoid midpoint")
	assert.InDelta(t, artifact.Calibrator.Calibrate(0.5), pred.CalibratedProbability, 1e-9)
}

// TestPredictCacheReturnsIdenticalResultForIdenticalDraft checks that
// repeated calls for the same draft state within the TTL return the exact
// same prediction without re-scoring.
func TestPredictCacheReturnsIdenticalResultForIdenticalDraft(t *testing.T) {
	attrs := testAttrs(t)
	artifact := testArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, NewResultCache(4, time.Minute), 3)

	record := fullRecord()
	first, err := engine.Predict(context.Background(), record, draft.GroupMid, nil, nil)
	require.NoError(t, err)

	second, err := engine.Predict(context.Background(), record, draft.GroupMid, nil, nil)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestPredictReturnsDeadlineExceededWhenContextAlreadyCanceled(t *testing.T) {
	attrs := testAttrs(t)
	artifact := testArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, NewResultCache(4, time.Minute), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Predict(ctx, fullRecord(), draft.GroupMid, nil, nil)
	assert.True(t, errs.Is(err, errs.DeadlineExceeded))
}

func TestPredictPropagatesNoModelAvailable(t *testing.T) {
	attrs := testAttrs(t)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15},
		&fakeRegistry{err: errs.New(errs.NoModelAvailable, "", "no artifact")}, NewResultCache(4, time.Minute), 3)

	_, err := engine.Predict(context.Background(), fullRecord(), draft.GroupMid, nil, nil)
	assert.True(t, errs.Is(err, errs.NoModelAvailable))
}

func TestPredictExplanationsReferenceKnownFeatureNames(t *testing.T) {
	attrs := testAttrs(t)
	artifact := testArtifact(t, attrs)
	engine := New(attrs, features.Config{Mode: features.Basic, ReferenceSeason: 15}, &fakeRegistry{artifact: artifact}, NewResultCache(4, time.Minute), 2)

	pred, err := engine.Predict(context.Background(), fullRecord(), draft.GroupMid, nil, nil)
	require.NoError(t, err)
	for _, c := range append(append([]Contribution{}, pred.Positive...), pred.Negative...) {
		assert.NotEmpty(t, c.Name)
	}
}
