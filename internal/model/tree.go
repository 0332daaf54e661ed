package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a shallow regression tree. Leaves carry Value;
// internal nodes carry a (FeatureIndex, Threshold) split plus both children.
type treeNode struct {
	IsLeaf       bool
	Value        float64
	FeatureIndex int
	Threshold    float64
	Left         *treeNode
	Right        *treeNode
}

func (n *treeNode) predict(x []float64) float64 {
	if n.IsLeaf {
		return n.Value
	}
	if n.FeatureIndex < len(x) && x[n.FeatureIndex] <= n.Threshold {
		return n.Left.predict(x)
	}
	return n.Right.predict(x)
}

// RegressionTree is a single CART-style regression tree fit by recursive
// variance-reduction splitting over a row/column subsample.
type RegressionTree struct {
	Root *treeNode
}

// TreeEnsemble is a gradient-boosted ensemble of shallow regression trees
// fit against the negative gradient of log loss. Rows are subsampled once
// per round and columns once per split, following the classic stochastic
// gradient boosting recipe.
type TreeEnsemble struct {
	Trees        []*RegressionTree
	InitialLogit float64
	LearningRate float64
	FeatVer      string
}

// TreeConfig controls the boosting fit.
type TreeConfig struct {
	NumTrees         int
	MaxDepth         int
	LearningRate     float64
	RowSubsample     float64 // fraction of rows sampled per tree, (0,1]
	ColSubsample     float64 // fraction of columns considered per split, (0,1]
	MinSamplesLeaf   int
	EarlyStopRounds  int     // stop if in-sample loss hasn't improved for this many rounds
	EarlyStopDelta   float64
	Seed             int64
}

func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		NumTrees:        200,
		MaxDepth:        3,
		LearningRate:    0.05,
		RowSubsample:    0.8,
		ColSubsample:    0.7,
		MinSamplesLeaf:  20,
		EarlyStopRounds: 15,
		EarlyStopDelta:  1e-5,
		Seed:            1,
	}
}

// FitTreeEnsemble boosts shallow regression trees against the residual of
// log loss, stopping early once in-sample loss plateaus.
func FitTreeEnsemble(x [][]float64, y []float64, featureVersion string, cfg TreeConfig) (*TreeEnsemble, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("model: tree ensemble fit requires at least one row")
	}
	nSamples := len(x)
	rng := rand.New(rand.NewSource(cfg.Seed))

	var posRate float64
	for _, yi := range y {
		posRate += yi
	}
	posRate /= float64(nSamples)
	posRate = math.Min(math.Max(posRate, 1e-6), 1-1e-6)
	initialLogit := math.Log(posRate / (1 - posRate))

	predictions := make([]float64, nSamples)
	for i := range predictions {
		predictions[i] = initialLogit
	}

	ensemble := &TreeEnsemble{InitialLogit: initialLogit, LearningRate: cfg.LearningRate, FeatVer: featureVersion}

	bestLoss := math.Inf(1)
	roundsSinceImprove := 0

	for round := 0; round < cfg.NumTrees; round++ {
		residual := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			p := sigmoid(predictions[i])
			residual[i] = y[i] - p
		}

		rowIdx := sampleIndices(rng, nSamples, cfg.RowSubsample)
		tree := fitRegressionTree(x, residual, rowIdx, cfg.MaxDepth, cfg.MinSamplesLeaf, cfg.ColSubsample, rng)
		ensemble.Trees = append(ensemble.Trees, tree)

		var loss float64
		for i := 0; i < nSamples; i++ {
			predictions[i] += cfg.LearningRate * tree.Root.predict(x[i])
			loss += logLossTerm(sigmoid(predictions[i]), y[i])
		}
		loss /= float64(nSamples)

		if bestLoss-loss > cfg.EarlyStopDelta {
			bestLoss = loss
			roundsSinceImprove = 0
		} else {
			roundsSinceImprove++
			if cfg.EarlyStopRounds > 0 && roundsSinceImprove >= cfg.EarlyStopRounds {
				break
			}
		}
	}

	return ensemble, nil
}

func sampleIndices(rng *rand.Rand, n int, fraction float64) []int {
	if fraction <= 0 || fraction >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)
	return perm[:k]
}

func fitRegressionTree(x [][]float64, target []float64, rows []int, maxDepth, minSamplesLeaf int, colSubsample float64, rng *rand.Rand) *RegressionTree {
	root := buildNode(x, target, rows, maxDepth, minSamplesLeaf, colSubsample, rng)
	return &RegressionTree{Root: root}
}

func buildNode(x [][]float64, target []float64, rows []int, depth, minSamplesLeaf int, colSubsample float64, rng *rand.Rand) *treeNode {
	mean := meanOf(target, rows)
	if depth <= 0 || len(rows) < 2*minSamplesLeaf {
		return &treeNode{IsLeaf: true, Value: mean}
	}

	nFeatures := len(x[rows[0]])
	candidateFeatures := sampleColumns(rng, nFeatures, colSubsample)

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0
	var bestLeft, bestRight []int

	parentSSE := sse(target, rows, mean)

	for _, f := range candidateFeatures {
		sorted := make([]int, len(rows))
		copy(sorted, rows)
		sort.Slice(sorted, func(a, b int) bool { return x[sorted[a]][f] < x[sorted[b]][f] })

		for cut := minSamplesLeaf; cut <= len(sorted)-minSamplesLeaf; cut++ {
			left := sorted[:cut]
			right := sorted[cut:]
			threshold := x[sorted[cut-1]][f]

			leftMean := meanOf(target, left)
			rightMean := meanOf(target, right)
			gain := parentSSE - sse(target, left, leftMean) - sse(target, right, rightMean)
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = threshold
				bestLeft = left
				bestRight = right
			}
		}
	}

	if bestFeature < 0 {
		return &treeNode{IsLeaf: true, Value: mean}
	}

	return &treeNode{
		IsLeaf:       false,
		Value:        mean,
		FeatureIndex: bestFeature,
		Threshold:    bestThreshold,
		Left:         buildNode(x, target, bestLeft, depth-1, minSamplesLeaf, colSubsample, rng),
		Right:        buildNode(x, target, bestRight, depth-1, minSamplesLeaf, colSubsample, rng),
	}
}

func sampleColumns(rng *rand.Rand, n int, fraction float64) []int {
	if fraction <= 0 || fraction >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)
	return perm[:k]
}

func meanOf(target []float64, rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += target[r]
	}
	return sum / float64(len(rows))
}

func sse(target []float64, rows []int, mean float64) float64 {
	var s float64
	for _, r := range rows {
		d := target[r] - mean
		s += d * d
	}
	return s
}

func (m *TreeEnsemble) Kind() Kind { return KindTreeEnsemble }

func (m *TreeEnsemble) FeatureVersion() string { return m.FeatVer }

func (m *TreeEnsemble) Score(x []float64) float64 {
	logit := m.InitialLogit
	for _, t := range m.Trees {
		logit += m.LearningRate * t.Root.predict(x)
	}
	return sigmoid(logit)
}

// Explain decomposes the ensemble's logit into per-feature contributions via
// the Saabas method: walking each tree's decision path, a split on feature f
// contributes (child_value - parent_value) * learning_rate to f's running
// total. The decomposition's sum plus InitialLogit plus each tree's root
// value times the learning rate equals the pre-sigmoid score exactly.
func (m *TreeEnsemble) Explain(x []float64, topK int) (positive, negative []Contribution) {
	totals := make(map[int]float64)
	for _, t := range m.Trees {
		walkContribution(t.Root, x, m.LearningRate, totals)
	}

	contribs := make([]Contribution, 0, len(totals))
	for idx, c := range totals {
		value := 0.0
		if idx < len(x) {
			value = x[idx]
		}
		contribs = append(contribs, Contribution{Index: idx, Value: value, Contribution: c})
	}
	return topKSplit(contribs, topK)
}

func walkContribution(n *treeNode, x []float64, learningRate float64, totals map[int]float64) {
	if n.IsLeaf {
		return
	}
	var next *treeNode
	if n.FeatureIndex < len(x) && x[n.FeatureIndex] <= n.Threshold {
		next = n.Left
	} else {
		next = n.Right
	}
	totals[n.FeatureIndex] += (next.Value - n.Value) * learningRate
	walkContribution(next, x, learningRate, totals)
}
