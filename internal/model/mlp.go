package model

import (
	"fmt"
	"math"
	"math/rand"
)

// MLPModel is a feed-forward network with ReLU hidden layers and a sigmoid
// output, trained by backpropagation with dropout on the hidden layers. It
// is the richest and least interpretable of the three variants: Explain
// falls back to a single backward pass (gradient x input), an approximation
// rather than an exact decomposition.
type MLPModel struct {
	LayerSizes []int // e.g. [featureDim, 512, 256, 128, 1]
	Weights    [][][]float64
	Biases     [][]float64
	FeatVer    string
}

// MLPConfig controls the backprop fit.
type MLPConfig struct {
	HiddenLayers []int
	LearningRate float64
	Epochs       int
	BatchSize    int
	DropoutRate  float64
	L2Lambda     float64
	Seed         int64
}

func DefaultMLPConfig() MLPConfig {
	return MLPConfig{
		HiddenLayers: []int{512, 256, 128},
		LearningRate: 0.001,
		Epochs:       40,
		BatchSize:    64,
		DropoutRate:  0.2,
		L2Lambda:     1e-4,
		Seed:         1,
	}
}

// FitMLP trains a feed-forward classifier by mini-batch gradient descent
// with dropout regularization on the hidden layers.
func FitMLP(x [][]float64, y []float64, featureVersion string, cfg MLPConfig) (*MLPModel, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("model: mlp fit requires at least one row")
	}
	inputDim := len(x[0])
	sizes := append([]int{inputDim}, cfg.HiddenLayers...)
	sizes = append(sizes, 1)

	rng := rand.New(rand.NewSource(cfg.Seed))
	weights := make([][][]float64, len(sizes)-1)
	biases := make([][]float64, len(sizes)-1)
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		scale := math.Sqrt(2.0 / float64(in))
		weights[l] = make([][]float64, out)
		for o := 0; o < out; o++ {
			weights[l][o] = make([]float64, in)
			for i := 0; i < in; i++ {
				weights[l][o][i] = rng.NormFloat64() * scale
			}
		}
		biases[l] = make([]float64, out)
	}

	m := &MLPModel{LayerSizes: sizes, Weights: weights, Biases: biases, FeatVer: featureVersion}
	nSamples := len(x)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		order := rng.Perm(nSamples)
		for start := 0; start < nSamples; start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > nSamples {
				end = nSamples
			}
			batch := order[start:end]
			m.trainBatch(x, y, batch, cfg, rng)
		}
	}

	return m, nil
}

// forward runs one example through the network, returning the pre-activation
// and post-activation values of every layer (needed for backprop) and a
// per-hidden-layer dropout mask (nil when train is false).
func (m *MLPModel) forward(x []float64, dropout float64, train bool, rng *rand.Rand) (activations [][]float64, masks [][]float64) {
	activations = make([][]float64, len(m.Weights)+1)
	masks = make([][]float64, len(m.Weights))
	activations[0] = x

	for l, layer := range m.Weights {
		out := make([]float64, len(layer))
		for o, neuronWeights := range layer {
			z := m.Biases[l][o]
			for i, w := range neuronWeights {
				z += w * activations[l][i]
			}
			if l < len(m.Weights)-1 {
				out[o] = reLU(z)
			} else {
				out[o] = z // final linear logit; sigmoid applied by caller
			}
		}
		if train && l < len(m.Weights)-1 && dropout > 0 {
			mask := make([]float64, len(out))
			for o := range out {
				if rng.Float64() < dropout {
					mask[o] = 0
				} else {
					mask[o] = 1 / (1 - dropout)
				}
				out[o] *= mask[o]
			}
			masks[l] = mask
		}
		activations[l+1] = out
	}
	return activations, masks
}

func (m *MLPModel) trainBatch(x [][]float64, y []float64, batch []int, cfg MLPConfig, rng *rand.Rand) {
	gradW := make([][][]float64, len(m.Weights))
	gradB := make([][]float64, len(m.Weights))
	for l := range m.Weights {
		gradW[l] = make([][]float64, len(m.Weights[l]))
		for o := range m.Weights[l] {
			gradW[l][o] = make([]float64, len(m.Weights[l][o]))
		}
		gradB[l] = make([]float64, len(m.Biases[l]))
	}

	for _, idx := range batch {
		activations, masks := m.forward(x[idx], cfg.DropoutRate, true, rng)
		logit := activations[len(activations)-1][0]
		p := sigmoid(logit)

		delta := [][]float64{{p - y[idx]}}
		for l := len(m.Weights) - 1; l >= 0; l-- {
			d := delta[0]
			for o := range m.Weights[l] {
				gradB[l][o] += d[o]
				for i := range m.Weights[l][o] {
					gradW[l][o][i] += d[o] * activations[l][i]
				}
			}
			if l == 0 {
				break
			}
			prevDelta := make([]float64, len(activations[l]))
			for i := range prevDelta {
				var sum float64
				for o := range m.Weights[l] {
					sum += m.Weights[l][o][i] * d[o]
				}
				if activations[l][i] <= 0 {
					sum = 0 // ReLU derivative
				}
				if masks[l-1] != nil {
					sum *= masks[l-1][i]
				}
				prevDelta[i] = sum
			}
			delta = [][]float64{prevDelta}
		}
	}

	n := float64(len(batch))
	for l := range m.Weights {
		for o := range m.Weights[l] {
			for i := range m.Weights[l][o] {
				grad := gradW[l][o][i]/n + cfg.L2Lambda*m.Weights[l][o][i]
				m.Weights[l][o][i] -= cfg.LearningRate * grad
			}
			m.Biases[l][o] -= cfg.LearningRate * gradB[l][o] / n
		}
	}
}

func reLU(z float64) float64 {
	if z < 0 {
		return 0
	}
	return z
}

func (m *MLPModel) Kind() Kind { return KindMLP }

func (m *MLPModel) FeatureVersion() string { return m.FeatVer }

func (m *MLPModel) Score(x []float64) float64 {
	activations, _ := m.forward(x, 0, false, nil)
	logit := activations[len(activations)-1][0]
	return sigmoid(logit)
}

// Explain approximates per-feature contribution as gradient(output
// probability) x input, the gradient taken through the final sigmoid, a
// first-order Taylor approximation of the network's behavior around x —
// approximate, not an exact decomposition like the linear/tree variants.
func (m *MLPModel) Explain(x []float64, topK int) (positive, negative []Contribution) {
	activations, _ := m.forward(x, 0, false, nil)

	delta := []float64{sigmoid(activations[len(activations)-1][0]) * (1 - sigmoid(activations[len(activations)-1][0]))}
	for l := len(m.Weights) - 1; l >= 0; l-- {
		if l == 0 {
			gradInput := make([]float64, len(activations[0]))
			for i := range gradInput {
				var sum float64
				for o := range m.Weights[0] {
					sum += m.Weights[0][o][i] * delta[o]
				}
				gradInput[i] = sum
			}
			contribs := make([]Contribution, 0, len(x))
			for i, g := range gradInput {
				if i >= len(x) {
					break
				}
				contribs = append(contribs, Contribution{Index: i, Value: x[i], Contribution: g * x[i]})
			}
			return topKSplit(contribs, topK)
		}

		prevDelta := make([]float64, len(activations[l]))
		for i := range prevDelta {
			var sum float64
			for o := range m.Weights[l] {
				sum += m.Weights[l][o][i] * delta[o]
			}
			if activations[l][i] <= 0 {
				sum = 0
			}
			prevDelta[i] = sum
		}
		delta = prevDelta
	}
	return nil, nil
}
