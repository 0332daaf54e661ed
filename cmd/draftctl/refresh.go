package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/meta"
	"github.com/herald-lol/draftlab/internal/refresh"
)

var (
	refreshMatchesDir string
	refreshAttrsFile  string
	refreshOutDir     string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the history index, meta snapshots, and asset bundles from a match batch",
	Long: `Load every canonical match record under --matches and rebuild the
three serving-path aggregates for each tier group in one pass: the
champion/pair/matchup history index, the per-patch pick/ban/win-rate
snapshot, and the matchup-matrix/embedding/prior asset bundle. A tier
group with no matches in the batch is reported and skipped rather than
failing the whole run.

With --out set, the rebuilt history index and each tier group's asset
bundle are written to disk under that directory; meta snapshots are
serving-path only and are not persisted.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().StringVar(&refreshMatchesDir, "matches", "", "directory of canonical match-record .jsonl files (default: config data.matches_dir)")
	refreshCmd.Flags().StringVar(&refreshAttrsFile, "attributes", "", "champion attribute map path (default: config data.attributes_file)")
	refreshCmd.Flags().StringVar(&refreshOutDir, "out", "", "directory to persist the rebuilt history index and asset bundles into")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	attrs, err := loadChampionMap(refreshAttrsFile, cfg.Data.AttributesFile)
	if err != nil {
		return err
	}

	matchesDir := resolve(refreshMatchesDir, cfg.Data.MatchesDir)
	records, err := draft.LoadJSONLDir(matchesDir)
	if err != nil {
		return fmt.Errorf("draftctl refresh: %w", err)
	}

	r := refresh.New(
		attrs,
		refresh.HistoryConfig{
			MinChampGames:   cfg.History.MinChampGames,
			MinPairGames:    cfg.History.MinPairGames,
			MinMatchupGames: cfg.History.MinMatchupGames,
		},
		assets.Config{
			MinMatchupSupport: cfg.Assets.MinMatchupSupport,
			MinPriorSupport:   cfg.Assets.MinPriorSupport,
			EmbeddingDim:      cfg.Assets.EmbeddingDim,
			TrendPatchWindow:  cfg.Assets.TrendPatchWindow,
		},
		meta.Config{MinSupport: cfg.Meta.MinSupport, TrendWindowPatches: cfg.Meta.TrendPatches},
	)

	snap, err := r.Refresh(records)
	if err != nil {
		return fmt.Errorf("draftctl refresh: %w", err)
	}

	for _, group := range draft.AllTierGroups {
		bundle, hasAssets := snap.Assets[group]
		metaSnap := snap.Meta[group]
		if !hasAssets {
			fmt.Fprintf(os.Stdout, "%-6s  no matches in batch, skipped\n", group)
			continue
		}
		fmt.Fprintf(os.Stdout, "%-6s  patch=%s  champions_with_stats=%d  embedding_dim=%d\n",
			group, bundle.Patch, len(metaSnap.Stats), bundle.EmbeddingDim)
	}

	if refreshOutDir == "" {
		return nil
	}
	if err := snap.History.Save(historyIndexPath(refreshOutDir)); err != nil {
		return fmt.Errorf("draftctl refresh: saving history index: %w", err)
	}
	for group, bundle := range snap.Assets {
		dir := assets.Dir(refreshOutDir, group, bundle.Patch)
		if err := bundle.Save(dir); err != nil {
			return fmt.Errorf("draftctl refresh: saving %s asset bundle: %w", group, err)
		}
	}
	return nil
}

func historyIndexPath(root string) string {
	return filepath.Join(root, "history_index.json")
}
