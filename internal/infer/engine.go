// Package infer implements the online prediction path: assemble features
// for a completed or partial draft, score it against the tier group's
// current artifact, calibrate, and explain.
package infer

import (
	"context"
	"math"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/errs"
	"github.com/herald-lol/draftlab/internal/features"
	"github.com/herald-lol/draftlab/internal/history"
	"github.com/herald-lol/draftlab/internal/model"
)

// Registry is the subset of *registry.Registry the engine depends on,
// declared locally so this package doesn't import registry (which in turn
// would need infer for nothing) and so tests can supply a fake.
type Registry interface {
	Get(tierGroup draft.TierGroup) (*model.Artifact, error)
}

// Contribution mirrors model.Contribution but with Name always populated —
// the engine is the layer that knows how to map a vector index back to a
// feature name via features.Result.Names.
type Contribution struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// Prediction is the engine's full answer for one draft state.
type Prediction struct {
	RawProbability        float64        `json:"raw_probability"`
	CalibratedProbability float64        `json:"calibrated_probability"`
	Confidence            float64        `json:"confidence"` // 0..100
	Positive              []Contribution `json:"positive_contributions"`
	Negative              []Contribution `json:"negative_contributions"`
	FeatureVersion        string         `json:"feature_version"`
	ArtifactID             string        `json:"artifact_id"`
}

// Engine is the wiring point for one prediction request: feature assembly
// inputs plus the registry and cache it's constructed with.
type Engine struct {
	Attrs      *champion.Map
	FeatureCfg features.Config
	Registry   Registry
	Cache      *ResultCache
	TopK       int
}

// New builds a prediction Engine.
func New(attrs *champion.Map, featureCfg features.Config, registry Registry, cache *ResultCache, topK int) *Engine {
	return &Engine{Attrs: attrs, FeatureCfg: featureCfg, Registry: registry, Cache: cache, TopK: topK}
}

// Predict assembles, scores, calibrates, and explains record for group,
// returning a cached result when the exact draft state was scored within
// the cache's TTL. Respects ctx's deadline both before the (possibly
// expensive) feature assembly and before the registry lookup, so a caller
// that has already run out of budget doesn't pay for either.
func (e *Engine) Predict(ctx context.Context, record *draft.Record, group draft.TierGroup, hist *history.Snapshot, bundle *assets.Bundle) (*Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.DeadlineExceeded, "", "predict: deadline already exceeded", err)
	}

	featureVersion := features.FeatureVersion(e.Attrs.N(), embeddingDim(bundle), e.FeatureCfg.Mode)
	cacheKey := CanonicalDraftKey(record, group, featureVersion)

	if e.Cache != nil {
		if cached, ok := e.Cache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	result, err := features.Assemble(record, group, e.Attrs, hist, bundle, e.FeatureCfg)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidRequest, "", "predict: assembling features", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.DeadlineExceeded, "", "predict: deadline exceeded during feature assembly", err)
	}

	artifact, err := e.Registry.Get(group)
	if err != nil {
		return nil, err
	}
	if artifact.Classifier.FeatureVersion() != featureVersion {
		return nil, errs.New(errs.FeatureVersionMismatch, "",
			"serving artifact was trained on feature_version "+artifact.Classifier.FeatureVersion()+
				" but the live assembler produces "+featureVersion)
	}

	raw := artifact.Classifier.Score(result.Vector)
	calibrated := artifact.Calibrator.Calibrate(raw)
	confidence := math.Abs(calibrated-0.5) * 200

	topK := e.TopK
	if topK <= 0 {
		topK = 3
	}
	pos, neg := artifact.Classifier.Explain(result.Vector, topK)

	prediction := &Prediction{
		RawProbability:        raw,
		CalibratedProbability: calibrated,
		Confidence:            confidence,
		Positive:              namedContributions(pos, result.Names),
		Negative:              namedContributions(neg, result.Names),
		FeatureVersion:        featureVersion,
		ArtifactID:            artifact.Card.ArtifactID,
	}

	if e.Cache != nil {
		e.Cache.Set(cacheKey, prediction)
	}
	return prediction, nil
}

func namedContributions(contribs []model.Contribution, names []string) []Contribution {
	out := make([]Contribution, len(contribs))
	for i, c := range contribs {
		name := ""
		if c.Index >= 0 && c.Index < len(names) {
			name = names[c.Index]
		}
		out[i] = Contribution{Name: name, Value: c.Value, Contribution: c.Contribution}
	}
	return out
}

func embeddingDim(bundle *assets.Bundle) int {
	if bundle == nil {
		return 0
	}
	return bundle.EmbeddingDim
}
