package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultGateConfig() GateConfig {
	return GateConfig{
		MinLogLossRelImprovement: 0.20,
		MinBrierRelImprovement:   0.20,
		MaxECERegression:         0.02,
	}
}

func TestGateAcceptsWhenLogLossImprovesEnough(t *testing.T) {
	current := Metrics{LogLoss: 0.50, Brier: 0.25, ECE: 0.05}
	candidate := Metrics{LogLoss: 0.35, Brier: 0.24, ECE: 0.05} // 30% log-loss improvement, flat ECE

	d := Evaluate(current, candidate, defaultGateConfig())
	assert.True(t, d.Accept)
	assert.InDelta(t, 0.30, d.LogLossRelImprove, 1e-9)
}

func TestGateAcceptsOnBrierAloneWhenLogLossDoesNotQualify(t *testing.T) {
	current := Metrics{LogLoss: 0.50, Brier: 0.25, ECE: 0.05}
	candidate := Metrics{LogLoss: 0.48, Brier: 0.18, ECE: 0.05} // log-loss barely moves, brier improves 28%

	d := Evaluate(current, candidate, defaultGateConfig())
	assert.True(t, d.Accept)
}

// TestGateRejectsOnECERegression checks that a candidate
// that clears the improvement bar but calibrates worse (larger ECE) must
// still be rejected.
func TestGateRejectsOnECERegression(t *testing.T) {
	current := Metrics{LogLoss: 0.50, Brier: 0.25, ECE: 0.03}
	candidate := Metrics{LogLoss: 0.30, Brier: 0.15, ECE: 0.08} // big improvement, but ECE regresses by 0.05

	d := Evaluate(current, candidate, defaultGateConfig())
	assert.False(t, d.Accept)
	assert.Contains(t, d.Reason, "ECE regressed")
}

func TestGateRejectsWhenNeitherMetricImprovesEnough(t *testing.T) {
	current := Metrics{LogLoss: 0.50, Brier: 0.25, ECE: 0.03}
	candidate := Metrics{LogLoss: 0.48, Brier: 0.24, ECE: 0.03} // marginal improvement only

	d := Evaluate(current, candidate, defaultGateConfig())
	assert.False(t, d.Accept)
	assert.Contains(t, d.Reason, "rejected: neither")
}

func TestRelativeImprovementHandlesZeroBaseline(t *testing.T) {
	assert.Equal(t, 0.0, relativeImprovement(0, 0.1))
}

func TestDecisionVerdictMatchesAccept(t *testing.T) {
	current := Metrics{LogLoss: 0.50, Brier: 0.25, ECE: 0.03}

	rejected := Evaluate(current, Metrics{LogLoss: 0.48, Brier: 0.24, ECE: 0.03}, defaultGateConfig())
	assert.Equal(t, VerdictRejected, rejected.Verdict())

	accepted := Evaluate(current, Metrics{LogLoss: 0.30, Brier: 0.15, ECE: 0.03}, defaultGateConfig())
	assert.Equal(t, VerdictAccepted, accepted.Verdict())
}
