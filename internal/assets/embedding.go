package assets

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/herald-lol/draftlab/internal/draft"
)

// buildEmbeddings factorizes a champion co-occurrence + outcome matrix via
// truncated SVD to produce d-dim embeddings, L2-normalized per row.
// Grounded on the latent-factor shape of
// other_examples' BPR recommender (NumFactors, regularized factorization of
// an interaction matrix) but computed directly via gonum/mat's SVD rather
// than SGD, since the input here is a small dense symmetric matrix where an
// exact truncated SVD is cheap and deterministic — useful since two builds
// from the same match set must produce byte-identical artifacts.
func buildEmbeddings(matches []*draft.Record, n int, championIndex func(int) (int, bool), d int) [][]float64 {
	if n == 0 || d == 0 {
		return nil
	}

	co := mat.NewDense(n, n, nil)
	for _, m := range matches {
		accumulateCoOccurrence(co, m.BluePicks, m.BlueWin, championIndex)
		accumulateCoOccurrence(co, m.RedPicks, !m.BlueWin, championIndex)
	}

	centered := doubleCenter(co, n)

	var svd mat.SVD
	ok := svd.Factorize(centered, mat.SVDThin)
	if !ok {
		return zeroEmbeddings(n, d)
	}
	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	k := d
	if k > len(values) {
		k = len(values)
	}

	embedding := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, d)
		for j := 0; j < k; j++ {
			sv := values[j]
			if sv < 0 {
				sv = 0
			}
			row[j] = u.At(i, j) * math.Sqrt(sv)
		}
		embedding[i] = l2Normalize(row)
	}
	return embedding
}

func accumulateCoOccurrence(co *mat.Dense, picks [5]int, win bool, championIndex func(int) (int, bool)) {
	weight := 1.0
	if !win {
		weight = -1.0
	}
	for i := 0; i < len(picks); i++ {
		for j := i + 1; j < len(picks); j++ {
			ai, ok1 := championIndex(picks[i])
			bi, ok2 := championIndex(picks[j])
			if !ok1 || !ok2 {
				continue
			}
			co.Set(ai, bi, co.At(ai, bi)+weight)
			co.Set(bi, ai, co.At(bi, ai)+weight)
		}
	}
}

// doubleCenter subtracts row mean, column mean, and adds back the global
// mean, the standard pre-factorization centering for co-occurrence matrices.
func doubleCenter(m *mat.Dense, n int) *mat.Dense {
	rowMean := make([]float64, n)
	var globalSum float64
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < n; j++ {
			s += m.At(i, j)
		}
		rowMean[i] = s / float64(n)
		globalSum += s
	}
	globalMean := globalSum / float64(n*n)

	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, m.At(i, j)-rowMean[i]-rowMean[j]+globalMean)
		}
	}
	return out
}

func l2Normalize(row []float64) []float64 {
	var sumSq float64
	for _, v := range row {
		sumSq += v * v
	}
	if sumSq == 0 {
		return row
	}
	norm := math.Sqrt(sumSq)
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v / norm
	}
	return out
}

func zeroEmbeddings(n, d int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, d)
	}
	return out
}
