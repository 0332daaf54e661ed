package model

import (
	"fmt"
	"sort"
)

// IsotonicCalibrator is a monotone piecewise-linear function fit by pool-adjacent
// violators (PAVA), the default calibrator. It maps a raw score to a
// calibrated probability by linear interpolation between the fitted knots,
// extrapolating flat beyond the observed range.
type IsotonicCalibrator struct {
	X []float64 // sorted raw scores (knot boundaries)
	Y []float64 // calibrated probability at each knot, non-decreasing
}

// FitIsotonic runs PAVA over out-of-fold (raw, outcome) pairs. No library in
// the dependency surface offers isotonic regression, so this is a direct,
// from-scratch implementation of the standard pool-adjacent-violators
// algorithm (see any isotonic regression reference) rather than a stdlib
// substitute for a real dependency.
func FitIsotonic(raw, outcome []float64) (*IsotonicCalibrator, error) {
	if len(raw) != len(outcome) || len(raw) == 0 {
		return nil, fmt.Errorf("model: isotonic fit requires matching, non-empty raw/outcome slices")
	}

	type point struct {
		x, y   float64
		weight float64
	}
	pts := make([]point, len(raw))
	for i := range raw {
		pts[i] = point{x: raw[i], y: outcome[i], weight: 1}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	// PAVA: maintain a stack of pooled blocks, merging the newest block
	// backward whenever it would violate non-decreasing order.
	type block struct {
		sumX, sumY, weight float64
		minX, maxX         float64
	}
	var blocks []block
	for _, p := range pts {
		b := block{sumX: p.x * p.weight, sumY: p.y * p.weight, weight: p.weight, minX: p.x, maxX: p.x}
		blocks = append(blocks, b)
		for len(blocks) > 1 {
			last := blocks[len(blocks)-1]
			prev := blocks[len(blocks)-2]
			if prev.sumY/prev.weight <= last.sumY/last.weight {
				break
			}
			merged := block{
				sumX:   prev.sumX + last.sumX,
				sumY:   prev.sumY + last.sumY,
				weight: prev.weight + last.weight,
				minX:   prev.minX,
				maxX:   last.maxX,
			}
			blocks = append(blocks[:len(blocks)-2], merged)
		}
	}

	x := make([]float64, len(blocks))
	y := make([]float64, len(blocks))
	for i, b := range blocks {
		x[i] = b.sumX / b.weight
		y[i] = b.sumY / b.weight
	}

	return &IsotonicCalibrator{X: x, Y: y}, nil
}

func (c *IsotonicCalibrator) Kind() Kind { return KindIsotonic }

func (c *IsotonicCalibrator) Calibrate(raw float64) float64 {
	if len(c.X) == 0 {
		return clampProbability(raw)
	}
	if raw <= c.X[0] {
		return clampProbability(c.Y[0])
	}
	if raw >= c.X[len(c.X)-1] {
		return clampProbability(c.Y[len(c.Y)-1])
	}
	i := sort.SearchFloat64s(c.X, raw)
	if i < len(c.X) && c.X[i] == raw {
		return clampProbability(c.Y[i])
	}
	lo, hi := i-1, i
	span := c.X[hi] - c.X[lo]
	if span <= 0 {
		return clampProbability(c.Y[lo])
	}
	t := (raw - c.X[lo]) / span
	return clampProbability(c.Y[lo] + t*(c.Y[hi]-c.Y[lo]))
}

// PlattCalibrator is a 1-D logistic regression on the raw score, the
// fallback calibrator used when an isotonic fit is degenerate (too few
// distinct raw-score knots for the curve to be meaningful).
type PlattCalibrator struct {
	A, B float64
}

// FitPlatt fits calibrated_prob = sigmoid(A*raw + B) by gradient descent,
// the textbook Platt scaling formulation.
func FitPlatt(raw, outcome []float64) (*PlattCalibrator, error) {
	if len(raw) != len(outcome) || len(raw) == 0 {
		return nil, fmt.Errorf("model: platt fit requires matching, non-empty raw/outcome slices")
	}
	a, b := 1.0, 0.0
	const lr = 0.01
	const epochs = 1000
	n := float64(len(raw))

	for epoch := 0; epoch < epochs; epoch++ {
		var gradA, gradB float64
		for i := range raw {
			p := sigmoid(a*raw[i] + b)
			err := p - outcome[i]
			gradA += err * raw[i]
			gradB += err
		}
		a -= lr * gradA / n
		b -= lr * gradB / n
	}

	return &PlattCalibrator{A: a, B: b}, nil
}

func (c *PlattCalibrator) Kind() Kind { return KindPlatt }

func (c *PlattCalibrator) Calibrate(raw float64) float64 {
	return clampProbability(sigmoid(c.A*raw + c.B))
}

// DistinctKnotCount reports how many distinct raw-score values an isotonic
// fit pooled down to, used by the caller to decide whether to fall back to
// Platt scaling (too few knots makes the isotonic curve a staircase with
// wide, uninformative flats).
func (c *IsotonicCalibrator) DistinctKnotCount() int {
	return len(c.X)
}
