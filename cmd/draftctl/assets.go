package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/herald-lol/draftlab/internal/assets"
	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/meta"
	"github.com/herald-lol/draftlab/internal/refresh"
)

var (
	assetsMatchesDir string
	assetsAttrsFile  string
	assetsGroup      string
	assetsOutDir     string
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Build matchup/embedding/prior bundles for one or every tier group",
	Long: `Build the per-patch asset bundle (matchup matrices, champion
embeddings, base-winrate priors with a trend slope) for a tier group's
latest patch, or every tier group when --group is omitted. Reuses the
same patch-window grouping the refresh command's rebuild uses, since
both need "this patch's matches plus a trailing window of prior
patches" out of the same batch.`,
	RunE: runAssets,
}

func init() {
	assetsCmd.Flags().StringVar(&assetsMatchesDir, "matches", "", "directory of canonical match-record .jsonl files (default: config data.matches_dir)")
	assetsCmd.Flags().StringVar(&assetsAttrsFile, "attributes", "", "champion attribute map path (default: config data.attributes_file)")
	assetsCmd.Flags().StringVar(&assetsGroup, "group", "", "tier group to build (low, mid, or high); all groups when omitted")
	assetsCmd.Flags().StringVar(&assetsOutDir, "out", "", "asset directory root (default: config data.assets_dir)")
}

func runAssets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if assetsGroup != "" && !containsGroup(draft.AllTierGroups, draft.TierGroup(assetsGroup)) {
		return fmt.Errorf("draftctl assets: unrecognized tier group %q", assetsGroup)
	}

	attrs, err := loadChampionMap(assetsAttrsFile, cfg.Data.AttributesFile)
	if err != nil {
		return err
	}

	matchesDir := resolve(assetsMatchesDir, cfg.Data.MatchesDir)
	records, err := draft.LoadJSONLDir(matchesDir)
	if err != nil {
		return fmt.Errorf("draftctl assets: %w", err)
	}

	assetCfg := assets.Config{
		MinMatchupSupport: cfg.Assets.MinMatchupSupport,
		MinPriorSupport:   cfg.Assets.MinPriorSupport,
		EmbeddingDim:      cfg.Assets.EmbeddingDim,
		TrendPatchWindow:  cfg.Assets.TrendPatchWindow,
	}
	r := refresh.New(
		attrs,
		refresh.HistoryConfig{
			MinChampGames:   cfg.History.MinChampGames,
			MinPairGames:    cfg.History.MinPairGames,
			MinMatchupGames: cfg.History.MinMatchupGames,
		},
		assetCfg,
		meta.Config{MinSupport: cfg.Meta.MinSupport, TrendWindowPatches: cfg.Meta.TrendPatches},
	)
	snap, err := r.Refresh(records)
	if err != nil {
		return fmt.Errorf("draftctl assets: %w", err)
	}

	outRoot := resolve(assetsOutDir, cfg.Data.AssetsDir)
	groups := draft.AllTierGroups
	if assetsGroup != "" {
		groups = []draft.TierGroup{draft.TierGroup(assetsGroup)}
	}

	for _, group := range groups {
		bundle, ok := snap.Assets[group]
		if !ok {
			fmt.Fprintf(os.Stdout, "%-6s  no matches in batch, skipped\n", group)
			continue
		}
		dir := assets.Dir(outRoot, group, bundle.Patch)
		if err := bundle.Save(dir); err != nil {
			return fmt.Errorf("draftctl assets: saving %s bundle: %w", group, err)
		}
		fmt.Fprintf(os.Stdout, "%-6s  patch=%s  embedding_dim=%d  -> %s\n", group, bundle.Patch, bundle.EmbeddingDim, dir)
	}
	return nil
}
