package train

import (
	"math/rand"

	"github.com/herald-lol/draftlab/internal/draft"
)

// stratifiedSplit partitions records into train/val/test so that each split
// preserves (approximately) the overall blue-win rate — shuffling the win
// and loss rows independently before slicing them proportionally, rather
// than shuffling the whole set and risking a skewed split on a small corpus.
func stratifiedSplit(records []*draft.Record, trainFrac, valFrac float64, seed int64) (trainSet, valSet, testSet []*draft.Record) {
	rng := rand.New(rand.NewSource(seed))

	var wins, losses []*draft.Record
	for _, r := range records {
		if r.BlueWin {
			wins = append(wins, r)
		} else {
			losses = append(losses, r)
		}
	}
	rng.Shuffle(len(wins), func(i, j int) { wins[i], wins[j] = wins[j], wins[i] })
	rng.Shuffle(len(losses), func(i, j int) { losses[i], losses[j] = losses[j], losses[i] })

	splitOne := func(group []*draft.Record) (train, val, test []*draft.Record) {
		n := len(group)
		trainEnd := int(float64(n) * trainFrac)
		valEnd := trainEnd + int(float64(n)*valFrac)
		return group[:trainEnd], group[trainEnd:valEnd], group[valEnd:]
	}

	wTrain, wVal, wTest := splitOne(wins)
	lTrain, lVal, lTest := splitOne(losses)

	trainSet = append(append([]*draft.Record{}, wTrain...), lTrain...)
	valSet = append(append([]*draft.Record{}, wVal...), lVal...)
	testSet = append(append([]*draft.Record{}, wTest...), lTest...)

	rng.Shuffle(len(trainSet), func(i, j int) { trainSet[i], trainSet[j] = trainSet[j], trainSet[i] })
	rng.Shuffle(len(valSet), func(i, j int) { valSet[i], valSet[j] = valSet[j], valSet[i] })
	rng.Shuffle(len(testSet), func(i, j int) { testSet[i], testSet[j] = testSet[j], testSet[i] })

	return trainSet, valSet, testSet
}

// kFoldIndices partitions [0, n) into k roughly-equal, non-overlapping folds
// for out-of-fold calibration.
func kFoldIndices(n, k int, seed int64) [][]int {
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(n)

	folds := make([][]int, k)
	for i, idx := range order {
		fold := i % k
		folds[fold] = append(folds[fold], idx)
	}
	return folds
}
