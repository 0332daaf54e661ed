package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/herald-lol/draftlab/internal/eval"
	"github.com/herald-lol/draftlab/internal/model"
)

var (
	evaluateCurrentCard   string
	evaluateCandidateCard string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Apply the promotion gate to a candidate card against the current one",
	Long: `Read two card.json files — the tier group's currently serving
artifact and a freshly trained candidate — and report whether the
candidate clears the promotion gate: a relative log-loss or Brier
improvement with no ECE regression past the configured tolerance.

Exits 1 when the candidate is rejected, so this can gate a training
pipeline's promote step.`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateCurrentCard, "current", "", "path to the currently serving artifact's card.json (required)")
	evaluateCmd.Flags().StringVar(&evaluateCandidateCard, "candidate", "", "path to the candidate artifact's card.json (required)")
	evaluateCmd.MarkFlagRequired("current")
	evaluateCmd.MarkFlagRequired("candidate")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	current, err := loadCard(evaluateCurrentCard)
	if err != nil {
		return err
	}
	candidate, err := loadCard(evaluateCandidateCard)
	if err != nil {
		return err
	}

	decision := eval.Evaluate(cardMetrics(current), cardMetrics(candidate), eval.GateConfig{
		MinLogLossRelImprovement: cfg.Gate.MinLogLossRelImprovement,
		MinBrierRelImprovement:  cfg.Gate.MinBrierRelImprovement,
		MaxECERegression:        cfg.Gate.MaxECERegression,
	})

	candidate.GateVerdict = decision.Verdict()
	if err := saveCard(evaluateCandidateCard, candidate); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, decision.Reason)
	if !decision.Accept {
		return fmt.Errorf("draftctl evaluate: candidate %s rejected", candidate.ArtifactID)
	}
	return nil
}

func loadCard(path string) (model.Card, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Card{}, fmt.Errorf("draftctl evaluate: reading %s: %w", path, err)
	}
	var card model.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return model.Card{}, fmt.Errorf("draftctl evaluate: parsing %s: %w", path, err)
	}
	return card, nil
}

func saveCard(path string, card model.Card) error {
	raw, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return fmt.Errorf("draftctl evaluate: marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("draftctl evaluate: writing %s: %w", path, err)
	}
	return nil
}

// cardMetrics reads the calibrated metric group, since the gate compares
// calibrated log-loss and Brier (eval.Evaluate's doc comment).
func cardMetrics(card model.Card) eval.Metrics {
	return eval.Metrics{
		LogLoss: card.TestMetricsCalibrated.LogLoss,
		Brier:   card.TestMetricsCalibrated.Brier,
		ROCAUC:  card.TestMetricsCalibrated.ROCAUC,
		ECE:     card.TestMetricsCalibrated.ECE,
		N:       card.TestRows,
	}
}
