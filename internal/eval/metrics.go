// Package eval computes held-out prediction-quality metrics and applies the
// promotion gate that decides whether a freshly trained artifact replaces
// the tier group's currently serving one.
package eval

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metrics is one evaluation run's summary over a held-out set: probability
// calibration and discrimination quality.
type Metrics struct {
	ROCAUC  float64
	LogLoss float64
	Brier   float64
	ECE     float64
	N       int
}

// Compute scores ROC-AUC, log-loss, Brier score, and a 10-bin expected
// calibration error over (predicted probability, actual outcome) pairs.
// predicted and actual must be the same length and non-empty.
func Compute(predicted, actual []float64) (Metrics, error) {
	if len(predicted) != len(actual) {
		return Metrics{}, fmt.Errorf("eval: predicted/actual length mismatch: %d vs %d", len(predicted), len(actual))
	}
	if len(predicted) == 0 {
		return Metrics{}, fmt.Errorf("eval: cannot compute metrics over an empty set")
	}

	auc, err := rocAUC(predicted, actual)
	if err != nil {
		return Metrics{}, err
	}

	return Metrics{
		ROCAUC:  auc,
		LogLoss: logLoss(predicted, actual),
		Brier:   brierScore(predicted, actual),
		ECE:     expectedCalibrationError(predicted, actual, 10),
		N:       len(predicted),
	}, nil
}

// rocAUC follows gonum/stat's documented ROC-curve-then-integrate pattern:
// build the TPR/FPR curve over the observed score cutoffs, then integrate
// it via the trapezoid rule.
func rocAUC(predicted, actual []float64) (float64, error) {
	classes := make([]bool, len(actual))
	hasPositive, hasNegative := false, false
	for i, a := range actual {
		classes[i] = a > 0.5
		if classes[i] {
			hasPositive = true
		} else {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return 0, fmt.Errorf("eval: ROC-AUC requires both positive and negative outcomes in the set")
	}

	order := make([]int, len(predicted))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return predicted[order[i]] < predicted[order[j]] })

	sortedScores := make([]float64, len(predicted))
	sortedClasses := make([]bool, len(predicted))
	for i, idx := range order {
		sortedScores[i] = predicted[idx]
		sortedClasses[i] = classes[idx]
	}

	tpr, fpr, _ := stat.ROC(nil, sortedScores, sortedClasses, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

func logLoss(predicted, actual []float64) float64 {
	const eps = 1e-12
	var sum float64
	for i, p := range predicted {
		p = math.Min(math.Max(p, eps), 1-eps)
		sum += -(actual[i]*math.Log(p) + (1-actual[i])*math.Log(1-p))
	}
	return sum / float64(len(predicted))
}

func brierScore(predicted, actual []float64) float64 {
	var sum float64
	for i, p := range predicted {
		d := p - actual[i]
		sum += d * d
	}
	return sum / float64(len(predicted))
}

// expectedCalibrationError buckets predictions into numBins equal-width
// bins over [0,1] and averages the absolute gap between each bin's mean
// predicted probability and its observed outcome rate, weighted by bin
// occupancy — the standard ECE definition.
func expectedCalibrationError(predicted, actual []float64, numBins int) float64 {
	type bin struct {
		sumPredicted float64
		sumActual    float64
		count        int
	}
	bins := make([]bin, numBins)

	for i, p := range predicted {
		idx := int(p * float64(numBins))
		if idx >= numBins {
			idx = numBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].sumPredicted += p
		bins[idx].sumActual += actual[i]
		bins[idx].count++
	}

	var ece float64
	for _, b := range bins {
		if b.count == 0 {
			continue
		}
		meanPredicted := b.sumPredicted / float64(b.count)
		meanActual := b.sumActual / float64(b.count)
		weight := float64(b.count) / float64(len(predicted))
		ece += weight * math.Abs(meanPredicted-meanActual)
	}
	return ece
}
