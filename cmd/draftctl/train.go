package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/features"
	"github.com/herald-lol/draftlab/internal/history"
	"github.com/herald-lol/draftlab/internal/model"
	"github.com/herald-lol/draftlab/internal/train"
)

var (
	trainMatchesDir   string
	trainAttrsFile    string
	trainGroup        string
	trainClassifier   string
	trainMode         string
	trainReferenceSeason int
	trainBundleDir    string
	trainArtifactID   string
	trainOutDir       string
	trainPromotedFrom string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a classifier and calibrator for one tier group",
	Long: `Load canonical match records for a tier group, assemble feature
vectors, fit the requested classifier variant, calibrate it against
5-fold out-of-fold predictions, evaluate it on a held-out split, and write
the resulting artifact (model.gob + card.json) to disk.

A record whose champion ids the assembler cannot resolve aborts the run and
reports the offending match id on stderr.`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainMatchesDir, "matches", "", "directory of canonical match-record .jsonl files (default: config data.matches_dir)")
	trainCmd.Flags().StringVar(&trainAttrsFile, "attributes", "", "champion attribute map path (default: config data.attributes_file)")
	trainCmd.Flags().StringVar(&trainGroup, "group", "", "tier group to train: low, mid, or high (required)")
	trainCmd.Flags().StringVar(&trainClassifier, "classifier", "linear", "classifier variant: linear, tree_ensemble, or mlp")
	trainCmd.Flags().StringVar(&trainMode, "mode", "basic", "feature mode: basic or rich")
	trainCmd.Flags().IntVar(&trainReferenceSeason, "reference-season", 15, "season patch features are expressed relative to")
	trainCmd.Flags().StringVar(&trainBundleDir, "bundle-dir", "", "asset bundle directory to load for rich-mode features (required when --mode=rich)")
	trainCmd.Flags().StringVar(&trainArtifactID, "artifact-id", "", "id to assign the trained artifact (required)")
	trainCmd.Flags().StringVar(&trainOutDir, "out", "", "artifact output root (default: config registry.artifact_dir)")
	trainCmd.Flags().StringVar(&trainPromotedFrom, "promoted-from", "", "artifact id this run supersedes, recorded on the card for audit")
	trainCmd.MarkFlagRequired("group")
	trainCmd.MarkFlagRequired("artifact-id")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	group := draft.TierGroup(trainGroup)
	if !containsGroup(draft.AllTierGroups, group) {
		return fmt.Errorf("draftctl train: unrecognized tier group %q", trainGroup)
	}

	classifierKind, err := parseClassifierKind(trainClassifier)
	if err != nil {
		return err
	}

	attrs, err := loadChampionMap(trainAttrsFile, cfg.Data.AttributesFile)
	if err != nil {
		return err
	}

	matchesDir := resolve(trainMatchesDir, cfg.Data.MatchesDir)
	records, err := draft.LoadJSONLDir(matchesDir)
	if err != nil {
		return fmt.Errorf("draftctl train: %w", err)
	}
	filtered := draft.FilterByTierGroup(records, group)
	if len(filtered) == 0 {
		return fmt.Errorf("draftctl train: no records found for tier group %q under %s", group, matchesDir)
	}

	idx := history.New(cfg.History.MinChampGames, cfg.History.MinPairGames, cfg.History.MinMatchupGames)
	idx.Build(records, group)
	hist := idx.Get(group)

	mode := features.Basic
	var bundle *assets.Bundle
	if trainMode == string(features.Rich) {
		mode = features.Rich
		if trainBundleDir == "" {
			return fmt.Errorf("draftctl train: --bundle-dir is required in rich mode")
		}
		bundle, err = assets.Load(trainBundleDir)
		if err != nil {
			return fmt.Errorf("draftctl train: loading asset bundle: %w", err)
		}
	}

	trainer := train.NewTrainer(attrs, features.Config{ReferenceSeason: trainReferenceSeason, Mode: mode}, cfg.Training)
	result, err := trainer.Train(filtered, group, hist, bundle, trainArtifactID, classifierKind)
	if err != nil {
		return fmt.Errorf("draftctl train: %w", err)
	}
	result.Artifact.Card.PromotedFromID = trainPromotedFrom

	outRoot := resolve(trainOutDir, cfg.Registry.ArtifactDir)
	artifactDir := filepath.Join(outRoot, trainArtifactID)
	if err := result.Artifact.Save(artifactDir); err != nil {
		return fmt.Errorf("draftctl train: saving artifact: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Artifact.Card)
}

func parseClassifierKind(s string) (model.Kind, error) {
	switch model.Kind(s) {
	case model.KindLinear, model.KindTreeEnsemble, model.KindMLP:
		return model.Kind(s), nil
	default:
		return "", fmt.Errorf("draftctl: unrecognized classifier %q (want linear, tree_ensemble, or mlp)", s)
	}
}

func containsGroup(groups []draft.TierGroup, g draft.TierGroup) bool {
	for _, candidate := range groups {
		if candidate == g {
			return true
		}
	}
	return false
}
