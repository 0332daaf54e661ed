package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinearModel is an L2-regularized logistic regression classifier, fit by
// batch gradient descent. It is the cheapest of the three variants to train
// and to explain: Explain is exact, since a linear model's contribution to
// the logit is just weight_i * x_i.
type LinearModel struct {
	Weights   []float64
	Bias      float64
	FeatVer   string
	Mean      []float64 // feature-wise mean used at fit time, for standardization
	StdDev    []float64 // feature-wise std used at fit time (1 where zero-variance)
}

// LinearConfig controls the gradient-descent fit.
type LinearConfig struct {
	L2Lambda     float64
	LearningRate float64
	MaxEpochs    int
	Tolerance    float64 // stop early once the loss improves by less than this
}

func DefaultLinearConfig() LinearConfig {
	return LinearConfig{
		L2Lambda:     1e-3,
		LearningRate: 0.1,
		MaxEpochs:    500,
		Tolerance:    1e-6,
	}
}

// FitLinear trains a logistic regression classifier on standardized features
// via full-batch gradient descent, mirroring the plain linear-algebra
// approach the rest of the corpus uses gonum/mat for (matrix-vector
// products rather than a hand-rolled inner-product loop).
func FitLinear(x [][]float64, y []float64, featureVersion string, cfg LinearConfig) (*LinearModel, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("model: linear fit requires at least one row")
	}
	nSamples := len(x)
	nFeatures := len(x[0])

	mean := make([]float64, nFeatures)
	std := make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		var sum float64
		for i := 0; i < nSamples; i++ {
			sum += x[i][j]
		}
		mean[j] = sum / float64(nSamples)
	}
	for j := 0; j < nFeatures; j++ {
		var sq float64
		for i := 0; i < nSamples; i++ {
			d := x[i][j] - mean[j]
			sq += d * d
		}
		std[j] = math.Sqrt(sq / float64(nSamples))
		if std[j] < 1e-9 {
			std[j] = 1
		}
	}

	xs := mat.NewDense(nSamples, nFeatures, nil)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			xs.Set(i, j, (x[i][j]-mean[j])/std[j])
		}
	}
	yv := mat.NewVecDense(nSamples, y)

	w := mat.NewVecDense(nFeatures, nil)
	bias := 0.0

	prevLoss := math.Inf(1)
	for epoch := 0; epoch < cfg.MaxEpochs; epoch++ {
		logits := mat.NewVecDense(nSamples, nil)
		logits.MulVec(xs, w)

		residual := mat.NewVecDense(nSamples, nil)
		var loss float64
		for i := 0; i < nSamples; i++ {
			z := logits.AtVec(i) + bias
			p := sigmoid(z)
			residual.SetVec(i, p-yv.AtVec(i))
			loss += logLossTerm(p, yv.AtVec(i))
		}
		loss /= float64(nSamples)
		for j := 0; j < nFeatures; j++ {
			loss += cfg.L2Lambda * w.AtVec(j) * w.AtVec(j)
		}

		grad := mat.NewVecDense(nFeatures, nil)
		grad.MulVec(xs.T(), residual)
		grad.ScaleVec(1.0/float64(nSamples), grad)
		for j := 0; j < nFeatures; j++ {
			grad.SetVec(j, grad.AtVec(j)+2*cfg.L2Lambda*w.AtVec(j))
		}

		var biasGrad float64
		for i := 0; i < nSamples; i++ {
			biasGrad += residual.AtVec(i)
		}
		biasGrad /= float64(nSamples)

		w.AddScaledVec(w, -cfg.LearningRate, grad)
		bias -= cfg.LearningRate * biasGrad

		if math.Abs(prevLoss-loss) < cfg.Tolerance {
			break
		}
		prevLoss = loss
	}

	weights := make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		weights[j] = w.AtVec(j)
	}

	return &LinearModel{
		Weights: weights,
		Bias:    bias,
		FeatVer: featureVersion,
		Mean:    mean,
		StdDev:  std,
	}, nil
}

func (m *LinearModel) Kind() Kind { return KindLinear }

func (m *LinearModel) FeatureVersion() string { return m.FeatVer }

func (m *LinearModel) Score(x []float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		if i >= len(x) {
			break
		}
		std := 1.0
		mean := 0.0
		if i < len(m.StdDev) {
			std = m.StdDev[i]
		}
		if i < len(m.Mean) {
			mean = m.Mean[i]
		}
		z += w * (x[i] - mean) / std
	}
	return sigmoid(z)
}

func (m *LinearModel) Explain(x []float64, topK int) (positive, negative []Contribution) {
	contribs := make([]Contribution, 0, len(m.Weights))
	for i, w := range m.Weights {
		if i >= len(x) {
			break
		}
		std := 1.0
		mean := 0.0
		if i < len(m.StdDev) {
			std = m.StdDev[i]
		}
		if i < len(m.Mean) {
			mean = m.Mean[i]
		}
		standardized := (x[i] - mean) / std
		contribs = append(contribs, Contribution{
			Index:        i,
			Value:        x[i],
			Contribution: w * standardized,
		})
	}
	return topKSplit(contribs, topK)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func logLossTerm(p, y float64) float64 {
	const eps = 1e-12
	p = math.Min(math.Max(p, eps), 1-eps)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}
