package model

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// classifierEnvelope is the gob-serializable tagged union backing a
// Classifier. gob cannot encode an interface value directly without global
// registration, which would couple every caller to this package's init
// order; a tagged struct of concrete pointers keeps the same dynamic-
// composition-over-inheritance shape as Classifier, just pushed one layer
// down into the persistence format.
type classifierEnvelope struct {
	Kind   Kind
	Linear *LinearModel
	Tree   *TreeEnsemble
	MLP    *MLPModel
}

func wrapClassifier(c Classifier) (classifierEnvelope, error) {
	switch v := c.(type) {
	case *LinearModel:
		return classifierEnvelope{Kind: KindLinear, Linear: v}, nil
	case *TreeEnsemble:
		return classifierEnvelope{Kind: KindTreeEnsemble, Tree: v}, nil
	case *MLPModel:
		return classifierEnvelope{Kind: KindMLP, MLP: v}, nil
	default:
		return classifierEnvelope{}, fmt.Errorf("model: unknown classifier type %T", c)
	}
}

func (e classifierEnvelope) unwrap() (Classifier, error) {
	switch e.Kind {
	case KindLinear:
		return e.Linear, nil
	case KindTreeEnsemble:
		return e.Tree, nil
	case KindMLP:
		return e.MLP, nil
	default:
		return nil, fmt.Errorf("model: unknown classifier kind %q in artifact", e.Kind)
	}
}

type calibratorEnvelope struct {
	Kind     Kind
	Isotonic *IsotonicCalibrator
	Platt    *PlattCalibrator
}

func wrapCalibrator(c Calibrator) (calibratorEnvelope, error) {
	switch v := c.(type) {
	case *IsotonicCalibrator:
		return calibratorEnvelope{Kind: KindIsotonic, Isotonic: v}, nil
	case *PlattCalibrator:
		return calibratorEnvelope{Kind: KindPlatt, Platt: v}, nil
	default:
		return calibratorEnvelope{}, fmt.Errorf("model: unknown calibrator type %T", c)
	}
}

func (e calibratorEnvelope) unwrap() (Calibrator, error) {
	switch e.Kind {
	case KindIsotonic:
		return e.Isotonic, nil
	case KindPlatt:
		return e.Platt, nil
	default:
		return nil, fmt.Errorf("model: unknown calibrator kind %q in artifact", e.Kind)
	}
}

// bundleOnDisk is the gob payload written to <artifact_dir>/model.gob.
type bundleOnDisk struct {
	Classifier classifierEnvelope
	Calibrator calibratorEnvelope
}

// MetricSet is one evaluation run's summary over a held-out set, duplicated
// from eval.Metrics' field set rather than imported so this package never
// depends on eval — a card is a pure data record, and eval is the package
// that knows how to produce one of these, not a dependency of the format
// that stores it.
type MetricSet struct {
	ROCAUC  float64 `json:"roc_auc"`
	LogLoss float64 `json:"log_loss"`
	Brier   float64 `json:"brier"`
	ECE     float64 `json:"ece"`
}

// Card is the human- and registry-readable sidecar describing an artifact:
// what tier group it serves, how it was trained, and how it performed at
// promotion time.
type Card struct {
	ArtifactID     string    `json:"artifact_id"`
	TierGroup      string    `json:"tier_group"`
	ClassifierKind Kind      `json:"classifier_kind"`
	CalibratorKind Kind      `json:"calibrator_kind"`
	FeatureVersion string    `json:"feature_version"`
	SourcePatch    string    `json:"source_patch"`
	TrainedAt      time.Time `json:"trained_at"`
	TrainRows      int       `json:"train_rows"`
	ValidationRows int       `json:"validation_rows"`
	TestRows       int       `json:"test_rows"`

	TestMetricsRaw        MetricSet `json:"test_metrics_raw"`
	TestMetricsCalibrated MetricSet `json:"test_metrics_calibrated"`

	// GateVerdict is one of eval.VerdictAccepted/eval.VerdictRejected, set
	// when a promotion gate run judges this artifact against the currently
	// serving one. Empty until that first runs.
	GateVerdict string `json:"gate_verdict,omitempty"`

	PromotedFromID string `json:"promoted_from_id,omitempty"`
}

// Artifact bundles the classifier, calibrator, and card that together make
// up one trained model for one tier group.
type Artifact struct {
	Classifier Classifier
	Calibrator Calibrator
	Card       Card
}

const (
	modelFileName = "model.gob"
	cardFileName  = "card.json"
)

// Save writes an artifact's gob-encoded model and JSON card into dir,
// creating it if necessary. Save is deterministic given identical inputs,
// supporting the registry's idempotent-rebuild expectations.
func (a *Artifact) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("model: create artifact dir: %w", err)
	}

	classifierEnv, err := wrapClassifier(a.Classifier)
	if err != nil {
		return err
	}
	calibratorEnv, err := wrapCalibrator(a.Calibrator)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bundleOnDisk{Classifier: classifierEnv, Calibrator: calibratorEnv}); err != nil {
		return fmt.Errorf("model: gob encode artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, modelFileName), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("model: write %s: %w", modelFileName, err)
	}

	cardBytes, err := json.MarshalIndent(a.Card, "", "  ")
	if err != nil {
		return fmt.Errorf("model: marshal card: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, cardFileName), cardBytes, 0o644); err != nil {
		return fmt.Errorf("model: write %s: %w", cardFileName, err)
	}
	return nil
}

// Load reads an artifact back from dir. Load(Save(a)) reproduces a with
// equal Score/Explain behavior (not necessarily an identical in-memory
// layout, since gob round-trips concrete values rather than pointers).
func Load(dir string) (*Artifact, error) {
	modelBytes, err := os.ReadFile(filepath.Join(dir, modelFileName))
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", modelFileName, err)
	}
	var bundle bundleOnDisk
	if err := gob.NewDecoder(bytes.NewReader(modelBytes)).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("model: gob decode artifact: %w", err)
	}

	classifier, err := bundle.Classifier.unwrap()
	if err != nil {
		return nil, err
	}
	calibrator, err := bundle.Calibrator.unwrap()
	if err != nil {
		return nil, err
	}

	cardBytes, err := os.ReadFile(filepath.Join(dir, cardFileName))
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", cardFileName, err)
	}
	var card Card
	if err := json.Unmarshal(cardBytes, &card); err != nil {
		return nil, fmt.Errorf("model: unmarshal card: %w", err)
	}

	return &Artifact{Classifier: classifier, Calibrator: calibrator, Card: card}, nil
}
