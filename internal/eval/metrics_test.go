package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePerfectSeparationHasAUCOne(t *testing.T) {
	predicted := []float64{0.1, 0.2, 0.3, 0.7, 0.8, 0.9}
	actual := []float64{0, 0, 0, 1, 1, 1}

	m, err := Compute(predicted, actual)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.ROCAUC, 1e-9)
	assert.Greater(t, m.LogLoss, 0.0)
}

func TestComputeRejectsEmptyOrMismatched(t *testing.T) {
	_, err := Compute(nil, nil)
	assert.Error(t, err)

	_, err = Compute([]float64{0.5}, []float64{0, 1})
	assert.Error(t, err)
}

func TestComputeRequiresBothClasses(t *testing.T) {
	_, err := Compute([]float64{0.1, 0.2, 0.3}, []float64{0, 0, 0})
	assert.Error(t, err)
}

func TestExpectedCalibrationErrorIsZeroWhenPerfectlyCalibrated(t *testing.T) {
	// Every bin's mean prediction matches its observed rate exactly.
	predicted := []float64{0.25, 0.25, 0.25, 0.25, 0.75, 0.75, 0.75, 0.75}
	actual := []float64{0, 0, 0, 1, 1, 1, 1, 0}
	ece := expectedCalibrationError(predicted, actual, 10)
	assert.InDelta(t, 0.0, ece, 1e-9)
}

func TestBrierScoreWorstCaseIsOne(t *testing.T) {
	predicted := []float64{1, 1}
	actual := []float64{0, 0}
	assert.InDelta(t, 1.0, brierScore(predicted, actual), 1e-9)
}

func TestLogLossPenalizesConfidentWrongPredictions(t *testing.T) {
	confidentWrong := logLoss([]float64{0.99}, []float64{0})
	unsure := logLoss([]float64{0.5}, []float64{0})
	assert.Greater(t, confidentWrong, unsure)
}
