package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/config"
	"github.com/herald-lol/draftlab/internal/logctx"
)

var rootCmd = &cobra.Command{
	Use:   "draftctl",
	Short: "Operate the draft outcome predictor",
	Long:  "Train, evaluate, and serve the pick/ban outcome predictor: offline asset/model builds, the artifact registry, and one-off online predictions.",
}

// Execute runs the root command, exiting 1 on any error the way cobra's
// RunE convention expects of a CLI entry point. Every run is tagged with a
// correlation id so a failing subcommand's diagnostics can be matched back
// to one invocation in a shared log stream.
func Execute() {
	logger := logctx.New(uuid.NewString())
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(predictCmd)
}

// loadConfig loads the shared viper-backed configuration, the entry point
// every subcommand starts from before applying its own flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("draftctl: loading config: %w", err)
	}
	return cfg, nil
}

// loadChampionMap resolves the attribute map path (flag override wins over
// config) and loads it.
func loadChampionMap(flagPath, cfgPath string) (*champion.Map, error) {
	path := cfgPath
	if flagPath != "" {
		path = flagPath
	}
	attrs, err := champion.Load(path)
	if err != nil {
		return nil, fmt.Errorf("draftctl: loading champion attributes from %s: %w", path, err)
	}
	return attrs, nil
}

func resolve(flagVal, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return cfgVal
}
