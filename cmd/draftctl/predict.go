package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/features"
	"github.com/herald-lol/draftlab/internal/history"
	"github.com/herald-lol/draftlab/internal/infer"
	"github.com/herald-lol/draftlab/internal/model"
)

var (
	predictArtifactDir string
	predictRecordFile  string
	predictGroup       string
	predictHistoryFile string
	predictBundleDir   string
	predictAttrsFile   string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score a single draft record against one artifact, bypassing the catalog",
	Long: `Load one artifact directly from --artifact-dir (skipping the
catalog database entirely — this is an ad-hoc single-artifact tool, not
the serving path) and score the draft record in --record against it,
printing the calibrated win probability and its top feature
contributions.`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictArtifactDir, "artifact-dir", "", "directory holding the artifact to score with (required)")
	predictCmd.Flags().StringVar(&predictRecordFile, "record", "", "path to a single JSON-encoded draft record (required)")
	predictCmd.Flags().StringVar(&predictGroup, "group", "", "tier group to predict for (required)")
	predictCmd.Flags().StringVar(&predictAttrsFile, "attributes", "", "champion attribute map path (default: config data.attributes_file)")
	predictCmd.Flags().StringVar(&predictHistoryFile, "history-index", "", "previously saved history index to load for richer features")
	predictCmd.Flags().StringVar(&predictBundleDir, "bundle-dir", "", "asset bundle directory to load for rich-mode features")
	predictCmd.MarkFlagRequired("artifact-dir")
	predictCmd.MarkFlagRequired("record")
	predictCmd.MarkFlagRequired("group")
}

// singleArtifactRegistry always resolves to the one artifact it was built
// with, letting the predict command reuse infer.Engine without standing up
// a catalog database for a one-off score.
type singleArtifactRegistry struct {
	artifact *model.Artifact
}

func (s singleArtifactRegistry) Get(draft.TierGroup) (*model.Artifact, error) {
	return s.artifact, nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	group := draft.TierGroup(predictGroup)
	if !containsGroup(draft.AllTierGroups, group) {
		return fmt.Errorf("draftctl predict: unrecognized tier group %q", predictGroup)
	}

	artifact, err := model.Load(predictArtifactDir)
	if err != nil {
		return fmt.Errorf("draftctl predict: loading artifact: %w", err)
	}

	attrs, err := loadChampionMap(predictAttrsFile, cfg.Data.AttributesFile)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(predictRecordFile)
	if err != nil {
		return fmt.Errorf("draftctl predict: reading %s: %w", predictRecordFile, err)
	}
	var record draft.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("draftctl predict: parsing %s: %w", predictRecordFile, err)
	}

	var hist *history.Snapshot
	if predictHistoryFile != "" {
		idx := history.New(cfg.History.MinChampGames, cfg.History.MinPairGames, cfg.History.MinMatchupGames)
		if err := idx.Load(predictHistoryFile); err != nil {
			return fmt.Errorf("draftctl predict: loading history index: %w", err)
		}
		hist = idx.Get(group)
	}

	var bundle *assets.Bundle
	mode := features.Basic
	if predictBundleDir != "" {
		bundle, err = assets.Load(predictBundleDir)
		if err != nil {
			return fmt.Errorf("draftctl predict: loading asset bundle: %w", err)
		}
		mode = features.Rich
	}

	engine := infer.New(attrs, features.Config{ReferenceSeason: 15, Mode: mode}, singleArtifactRegistry{artifact: artifact}, nil, cfg.Serving.ExplanationTopK)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Serving.RequestDeadline)
	defer cancel()

	prediction, err := engine.Predict(ctx, &record, group, hist, bundle)
	if err != nil {
		return fmt.Errorf("draftctl predict: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(prediction)
}
