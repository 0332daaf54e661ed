package registry

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/errs"
	"github.com/herald-lol/draftlab/internal/model"
)

func saveTestArtifact(t *testing.T, dir, artifactID string) {
	t.Helper()
	classifier := &model.LinearModel{Weights: []float64{1, -1}, Bias: 0, FeatVer: "fv1", Mean: []float64{0, 0}, StdDev: []float64{1, 1}}
	calibrator := &model.PlattCalibrator{A: 1, B: 0}
	artifact := &model.Artifact{
		Classifier: classifier,
		Calibrator: calibrator,
		Card:       model.Card{ArtifactID: artifactID, FeatureVersion: "fv1"},
	}
	require.NoError(t, artifact.Save(filepath.Join(dir, artifactID)))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "registry.db")
	store, err := OpenStore("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGetReturnsNoModelAvailableWhenNothingPromoted(t *testing.T) {
	store := newTestStore(t)
	reg := New(store, t.TempDir())

	_, err := reg.Get(draft.GroupMid)
	assert.True(t, errs.Is(err, errs.NoModelAvailable))
}

func TestGetLoadsAndCachesPromotedArtifact(t *testing.T) {
	artifactDir := t.TempDir()
	saveTestArtifact(t, artifactDir, "artifact-1")

	store := newTestStore(t)
	require.NoError(t, store.RecordPromotion(cardRow{
		ArtifactID: "artifact-1",
		TierGroup:  string(draft.GroupMid),
		TrainedAt:  time.Now(),
	}))

	reg := New(store, artifactDir)
	a1, err := reg.Get(draft.GroupMid)
	require.NoError(t, err)
	assert.Equal(t, "artifact-1", a1.Card.ArtifactID)

	a2, err := reg.Get(draft.GroupMid)
	require.NoError(t, err)
	assert.Same(t, a1, a2, "second Get should return the cached artifact, not reload")
}

func TestGetIsSingleFlightSafeUnderConcurrency(t *testing.T) {
	artifactDir := t.TempDir()
	saveTestArtifact(t, artifactDir, "artifact-concurrent")

	store := newTestStore(t)
	require.NoError(t, store.RecordPromotion(cardRow{
		ArtifactID: "artifact-concurrent",
		TierGroup:  string(draft.GroupHigh),
		TrainedAt:  time.Now(),
	}))

	reg := New(store, artifactDir)

	var wg sync.WaitGroup
	results := make([]*model.Artifact, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := reg.Get(draft.GroupHigh)
			require.NoError(t, err)
			results[i] = a
		}(i)
	}
	wg.Wait()

	for _, a := range results {
		assert.Same(t, results[0], a)
	}
}

func TestPromotionReplacesCurrentArtifactForTierGroup(t *testing.T) {
	artifactDir := t.TempDir()
	saveTestArtifact(t, artifactDir, "artifact-old")
	saveTestArtifact(t, artifactDir, "artifact-new")

	store := newTestStore(t)
	require.NoError(t, store.RecordPromotion(cardRow{ArtifactID: "artifact-old", TierGroup: string(draft.GroupLow), TrainedAt: time.Now()}))
	require.NoError(t, store.RecordPromotion(cardRow{ArtifactID: "artifact-new", TierGroup: string(draft.GroupLow), TrainedAt: time.Now()}))

	id, ok := store.CurrentArtifactID(string(draft.GroupLow))
	require.True(t, ok)
	assert.Equal(t, "artifact-new", id)

	history, err := store.History(string(draft.GroupLow))
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestPromoteCarriesGateVerdictAndPatchThroughToCardSummary(t *testing.T) {
	artifactDir := t.TempDir()
	saveTestArtifact(t, artifactDir, "artifact-graded")

	store := newTestStore(t)
	reg := New(store, artifactDir)

	card := model.Card{
		ArtifactID:     "artifact-graded",
		TierGroup:      string(draft.GroupLow),
		FeatureVersion: "fv1",
		SourcePatch:    "15.20",
		GateVerdict:    "accepted",
		TestMetricsCalibrated: model.MetricSet{LogLoss: 0.42},
	}
	require.NoError(t, reg.Promote(card))

	rows, err := reg.CurrentCards()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "15.20", rows[0].SourcePatch)
	assert.Equal(t, "accepted", rows[0].GateVerdict)
	assert.InDelta(t, 0.42, rows[0].TestLogLoss, 1e-9)
}
