// Package train implements the offline half of the pipeline:
// load canonical match records, assemble them into feature vectors, fit one
// of the three classifier variants, calibrate it against out-of-fold
// predictions, and emit a model artifact plus its evaluation card.
package train

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/config"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/eval"
	"github.com/herald-lol/draftlab/internal/features"
	"github.com/herald-lol/draftlab/internal/history"
	"github.com/herald-lol/draftlab/internal/model"
)

// Trainer holds the shared, rarely-changing inputs every training run needs:
// the champion attribute map and the feature/training configuration. This
// mirrors the corpus's "construct once, reuse per request" service shape
// rather than threading the same arguments through every call.
type Trainer struct {
	Attrs        *champion.Map
	FeatureCfg   features.Config
	TrainingCfg  config.TrainingConfig
}

// NewTrainer builds a Trainer from its dependencies.
func NewTrainer(attrs *champion.Map, featureCfg features.Config, trainingCfg config.TrainingConfig) *Trainer {
	return &Trainer{Attrs: attrs, FeatureCfg: featureCfg, TrainingCfg: trainingCfg}
}

// Result is one training run's output: the artifact ready to persist, its
// held-out test metrics (raw and calibrated), and the row counts the card
// records.
type Result struct {
	Artifact      *model.Artifact
	TestMetricRaw eval.Metrics
	TestMetric    eval.Metrics // calibrated; kept as the unqualified name since callers compare gate decisions against calibrated scores
	TrainRows     int
	ValRows       int
	TestRows      int
}

// Train fits classifierKind on records belonging to group, calibrates it
// against TrainingCfg.CVFolds-fold out-of-fold predictions, and evaluates it
// on a held-out test split. A tier group with fewer than TrainingCfg.MinMatchesPerTierGroup
// records is a hard error, as is any record whose
// champion ids the assembler cannot resolve — reported with its match id.
func (t *Trainer) Train(records []*draft.Record, group draft.TierGroup, hist *history.Snapshot, bundle *assets.Bundle, artifactID string, classifierKind model.Kind) (*Result, error) {
	groupRecords := draft.FilterByTierGroup(records, group)
	if len(groupRecords) < t.TrainingCfg.MinMatchesPerTierGroup {
		return nil, fmt.Errorf("train: tier group %s has %d matches, below the minimum of %d",
			group, len(groupRecords), t.TrainingCfg.MinMatchesPerTierGroup)
	}

	trainSet, valSet, testSet := stratifiedSplit(
		groupRecords, t.TrainingCfg.TrainFraction, t.TrainingCfg.ValFraction, t.TrainingCfg.RandomSeed)

	featureVersion := features.FeatureVersion(t.Attrs.N(), embeddingDim(bundle), t.FeatureCfg.Mode)

	trainX, trainY, err := t.assembleAll(trainSet, group, hist, bundle)
	if err != nil {
		return nil, err
	}
	testX, testY, err := t.assembleAll(testSet, group, hist, bundle)
	if err != nil {
		return nil, err
	}
	// The validation split takes no part in the fit; it is assembled only so
	// that a bad record in it fails the run like one in the other splits.
	if _, _, err := t.assembleAll(valSet, group, hist, bundle); err != nil {
		return nil, err
	}

	classifier, err := t.fitClassifier(trainX, trainY, featureVersion, classifierKind)
	if err != nil {
		return nil, err
	}

	oofRaw, oofLabels, err := t.outOfFoldPredictions(trainX, trainY, featureVersion, classifierKind)
	if err != nil {
		return nil, err
	}
	calibrator, calibratorKind, err := fitCalibrator(oofRaw, oofLabels)
	if err != nil {
		return nil, err
	}

	testRaw := make([]float64, len(testX))
	testCalibrated := make([]float64, len(testX))
	for i, x := range testX {
		raw := classifier.Score(x)
		testRaw[i] = raw
		testCalibrated[i] = calibrator.Calibrate(raw)
	}
	testMetricsRaw, err := eval.Compute(testRaw, testY)
	if err != nil {
		return nil, fmt.Errorf("train: compute raw test metrics: %w", err)
	}
	testMetricsCalibrated, err := eval.Compute(testCalibrated, testY)
	if err != nil {
		return nil, fmt.Errorf("train: compute calibrated test metrics: %w", err)
	}

	card := model.Card{
		ArtifactID:     artifactID,
		TierGroup:      string(group),
		ClassifierKind: classifierKind,
		CalibratorKind: calibratorKind,
		FeatureVersion: featureVersion,
		SourcePatch:    latestPatch(groupRecords),
		TrainedAt:      time.Now().UTC(),
		TrainRows:      len(trainSet),
		ValidationRows: len(valSet),
		TestRows:       len(testSet),
		TestMetricsRaw: model.MetricSet{
			ROCAUC:  testMetricsRaw.ROCAUC,
			LogLoss: testMetricsRaw.LogLoss,
			Brier:   testMetricsRaw.Brier,
			ECE:     testMetricsRaw.ECE,
		},
		TestMetricsCalibrated: model.MetricSet{
			ROCAUC:  testMetricsCalibrated.ROCAUC,
			LogLoss: testMetricsCalibrated.LogLoss,
			Brier:   testMetricsCalibrated.Brier,
			ECE:     testMetricsCalibrated.ECE,
		},
	}

	return &Result{
		Artifact:       &model.Artifact{Classifier: classifier, Calibrator: calibrator, Card: card},
		TestMetricRaw:  testMetricsRaw,
		TestMetric:     testMetricsCalibrated,
		TrainRows:      len(trainSet),
		ValRows:        len(valSet),
		TestRows:       len(testSet),
	}, nil
}

// latestPatch returns the most recent patch string among records, using the
// same season.minor numeric comparison splitByPatch relies on elsewhere in
// the pipeline, so a tier group's card always names the patch its training
// window actually ran through.
func latestPatch(records []*draft.Record) string {
	latest := ""
	latestSeason, latestMinor := -1, -1
	for _, r := range records {
		season, minor := parsePatch(r.Patch)
		if season > latestSeason || (season == latestSeason && minor > latestMinor) {
			latest, latestSeason, latestMinor = r.Patch, season, minor
		}
	}
	return latest
}

func parsePatch(patch string) (season, minor int) {
	parts := strings.SplitN(patch, ".", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	season, _ = strconv.Atoi(parts[0])
	minor, _ = strconv.Atoi(parts[1])
	return season, minor
}

func embeddingDim(bundle *assets.Bundle) int {
	if bundle == nil {
		return 0
	}
	return bundle.EmbeddingDim
}

// assembleAll runs the feature assembler over every record, annotating any
// failure with the offending match id so a bad record can be found fast.
func (t *Trainer) assembleAll(records []*draft.Record, group draft.TierGroup, hist *history.Snapshot, bundle *assets.Bundle) (x [][]float64, y []float64, err error) {
	x = make([][]float64, 0, len(records))
	y = make([]float64, 0, len(records))
	for _, r := range records {
		res, aerr := features.Assemble(r, group, t.Attrs, hist, bundle, t.FeatureCfg)
		if aerr != nil {
			return nil, nil, fmt.Errorf("train: assembling match %q: %w", r.MatchID, aerr)
		}
		x = append(x, res.Vector)
		label := 0.0
		if r.BlueWin {
			label = 1
		}
		y = append(y, label)
	}
	return x, y, nil
}

func (t *Trainer) fitClassifier(x [][]float64, y []float64, featureVersion string, kind model.Kind) (model.Classifier, error) {
	switch kind {
	case model.KindLinear:
		cfg := model.DefaultLinearConfig()
		cfg.L2Lambda = t.TrainingCfg.L2Lambda
		cfg.LearningRate = t.TrainingCfg.LearningRate
		cfg.MaxEpochs = t.TrainingCfg.MaxEpochs
		return model.FitLinear(x, y, featureVersion, cfg)
	case model.KindTreeEnsemble:
		cfg := model.DefaultTreeConfig()
		cfg.MaxDepth = t.TrainingCfg.MaxTreeDepth
		cfg.MinSamplesLeaf = t.TrainingCfg.MinSamplesPerLeaf
		cfg.NumTrees = t.TrainingCfg.MaxTrees
		cfg.RowSubsample = t.TrainingCfg.RowSubsample
		cfg.ColSubsample = t.TrainingCfg.ColSubsample
		cfg.EarlyStopRounds = t.TrainingCfg.EarlyStoppingRounds
		cfg.Seed = t.TrainingCfg.RandomSeed
		return model.FitTreeEnsemble(x, y, featureVersion, cfg)
	case model.KindMLP:
		cfg := model.DefaultMLPConfig()
		cfg.Seed = t.TrainingCfg.RandomSeed
		return model.FitMLP(x, y, featureVersion, cfg)
	default:
		return nil, fmt.Errorf("train: unknown classifier kind %q", kind)
	}
}

// outOfFoldPredictions runs TrainingCfg.CVFolds-fold cross validation over
// (x, y), fitting a fresh classifier per fold and scoring the held-out rows,
// so the calibrator is fit against predictions the classifier never saw
// during its own fit — the standard defense against calibration overfitting.
func (t *Trainer) outOfFoldPredictions(x [][]float64, y []float64, featureVersion string, kind model.Kind) (raw, labels []float64, err error) {
	folds := kFoldIndices(len(x), t.TrainingCfg.CVFolds, t.TrainingCfg.RandomSeed)

	raw = make([]float64, 0, len(x))
	labels = make([]float64, 0, len(x))

	for foldIdx := range folds {
		var trainX [][]float64
		var trainY []float64
		for other, idxs := range folds {
			if other == foldIdx {
				continue
			}
			for _, i := range idxs {
				trainX = append(trainX, x[i])
				trainY = append(trainY, y[i])
			}
		}
		if len(trainX) == 0 {
			continue
		}
		foldClassifier, ferr := t.fitClassifier(trainX, trainY, featureVersion, kind)
		if ferr != nil {
			return nil, nil, fmt.Errorf("train: fold %d fit: %w", foldIdx, ferr)
		}
		for _, i := range folds[foldIdx] {
			raw = append(raw, foldClassifier.Score(x[i]))
			labels = append(labels, y[i])
		}
	}
	return raw, labels, nil
}

// fitCalibrator prefers isotonic regression, the default calibrator,
// falling back to Platt scaling when the pooled-out-of-fold data collapses
// to too few distinct knots to trust a staircase calibration curve.
func fitCalibrator(raw, labels []float64) (model.Calibrator, model.Kind, error) {
	const minIsotonicKnots = 5

	isotonic, err := model.FitIsotonic(raw, labels)
	if err != nil {
		return nil, "", fmt.Errorf("train: fit isotonic calibrator: %w", err)
	}
	if isotonic.DistinctKnotCount() >= minIsotonicKnots {
		return isotonic, model.KindIsotonic, nil
	}

	platt, err := model.FitPlatt(raw, labels)
	if err != nil {
		return nil, "", fmt.Errorf("train: fit platt calibrator: %w", err)
	}
	return platt, model.KindPlatt, nil
}
