package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/herald-lol/draftlab/internal/draft"
	"github.com/herald-lol/draftlab/internal/model"
	"github.com/herald-lol/draftlab/internal/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and update the promoted-artifact catalog",
}

var registryListGroup string

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the currently serving artifact for every tier group",
	RunE:  runRegistryList,
}

var registryHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List every artifact ever promoted for one tier group, most recent first",
	RunE:  runRegistryHistory,
}

var (
	registryPromoteArtifactDir string
)

var registryPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Promote a trained artifact to currently serving its tier group",
	Long: `Read the card.json under --artifact-dir and record it as the
current artifact for its tier group, demoting whatever was current
before it. Does not move or copy the artifact bundle: --artifact-dir's
last path element must equal the card's artifact id, the same layout
train writes and the registry reads back at serve time.`,
	RunE: runRegistryPromote,
}

func init() {
	registryHistoryCmd.Flags().StringVar(&registryListGroup, "group", "", "tier group to list history for (required)")
	registryHistoryCmd.MarkFlagRequired("group")
	registryPromoteCmd.Flags().StringVar(&registryPromoteArtifactDir, "artifact-dir", "", "directory holding the trained artifact's model.gob and card.json (required)")
	registryPromoteCmd.MarkFlagRequired("artifact-dir")

	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryHistoryCmd)
	registryCmd.AddCommand(registryPromoteCmd)
}

func openRegistry() (*registry.Store, *registry.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := registry.OpenStore(cfg.Registry.Driver, cfg.Registry.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("draftctl registry: opening catalog: %w", err)
	}
	return store, registry.New(store, cfg.Registry.ArtifactDir), nil
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	store, reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := reg.CurrentCards()
	if err != nil {
		return fmt.Errorf("draftctl registry list: %w", err)
	}
	printCardTable(rows)
	return nil
}

func runRegistryHistory(cmd *cobra.Command, args []string) error {
	if registryListGroup == "" {
		return fmt.Errorf("draftctl registry history: --group is required")
	}
	group := draft.TierGroup(registryListGroup)
	if !containsGroup(draft.AllTierGroups, group) {
		return fmt.Errorf("draftctl registry history: unrecognized tier group %q", registryListGroup)
	}

	store, reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := reg.CardHistory(group)
	if err != nil {
		return fmt.Errorf("draftctl registry history: %w", err)
	}
	printCardTable(rows)
	return nil
}

func runRegistryPromote(cmd *cobra.Command, args []string) error {
	artifact, err := model.Load(registryPromoteArtifactDir)
	if err != nil {
		return fmt.Errorf("draftctl registry promote: loading artifact: %w", err)
	}

	store, reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := reg.Promote(artifact.Card); err != nil {
		return fmt.Errorf("draftctl registry promote: %w", err)
	}
	fmt.Fprintf(os.Stdout, "promoted %s as current for tier group %s\n", artifact.Card.ArtifactID, artifact.Card.TierGroup)
	return nil
}

func printCardTable(rows []registry.CardSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ARTIFACT_ID\tTIER_GROUP\tCLASSIFIER\tFEATURE_VERSION\tSOURCE_PATCH\tTRAINED_AT\tLOG_LOSS\tBRIER\tROC_AUC\tECE\tGATE_VERDICT\tCURRENT")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%s\t%v\n",
			row.ArtifactID, row.TierGroup, row.ClassifierKind, row.FeatureVersion, row.SourcePatch,
			row.TrainedAt.Format("2006-01-02T15:04:05Z"),
			row.TestLogLoss, row.TestBrier, row.TestROCAUC, row.TestECE, row.GateVerdict, row.IsCurrent)
	}
	w.Flush()
}
