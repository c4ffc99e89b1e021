package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/giantswarm/prompt-lab/internal/promptset"
	"github.com/giantswarm/prompt-lab/internal/results"
	"github.com/giantswarm/prompt-lab/internal/runner"
	"github.com/giantswarm/prompt-lab/internal/scorer"
)

func newScoreCmd() *cobra.Command {
	var (
		setName string
		setsDir string
	)

	cmd := &cobra.Command{
		Use:   "score <run-dir>",
		Short: "Re-score an existing run's outputs without calling the model",
		Long: `Re-apply the deterministic scorers to the model outputs already recorded
in a run directory's results.json, then rewrite both exports in place.
Useful after adjusting case expectations (keywords, word limits, labels).
Diagnostic metrics recorded by the original run (prompt token counts,
generation errors) are carried over unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runDir := args[0]

			set, err := promptset.Load(setName, setsDir)
			if err != nil {
				return fmt.Errorf("failed to load prompt set: %w", err)
			}
			cases := make(map[string]promptset.Case, len(set.Cases))
			for _, c := range set.Cases {
				cases[c.ID] = c
			}

			jsonPath := filepath.Join(runDir, results.JSONFileName)
			f, err := os.Open(jsonPath)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", jsonPath, err)
			}
			old, err := results.ReadJSON(f)
			f.Close()
			if err != nil {
				return err
			}

			registry := scorer.NewRegistry()
			rescored := &results.Set{}
			updated := 0
			for _, rec := range old.Records() {
				c, ok := cases[rec.CaseID]
				if !ok {
					slog.Warn("case not present in set, keeping record as is", "case_id", rec.CaseID)
					rescored.Append(rec)
					continue
				}
				fn, ok := registry.Lookup(c.Type)
				if !ok {
					slog.Warn("no scorer registered for case type, keeping record as is",
						"case_id", rec.CaseID,
						"type", c.Type,
					)
					rescored.Append(rec)
					continue
				}

				score := fn(rec.Output, c)
				rec.Type = c.Type
				rec.TotalScore = score.Total

				// Scorer-owned metrics are replaced; diagnostics recorded by
				// the original run survive.
				metrics := score.Metrics
				for _, k := range []string{runner.MetricPromptTokens, runner.MetricGenerationError} {
					if v, ok := rec.Metrics[k]; ok {
						if metrics == nil {
							metrics = make(map[string]any)
						}
						metrics[k] = v
					}
				}
				rec.Metrics = metrics
				rescored.Append(rec)
				updated++
			}

			csvPath, _, err := rescored.WriteFiles(runDir)
			if err != nil {
				return fmt.Errorf("failed to write results: %w", err)
			}

			fmt.Printf("Re-scored %d of %d records against set %q.\n", updated, rescored.Len(), set.Name)
			fmt.Printf("Results:\n  %s\n  %s\n", csvPath, jsonPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&setName, "set", "demo", "Prompt set whose cases supply the expectations")
	cmd.Flags().StringVar(&setsDir, "sets-dir", "", "External prompt sets directory")

	return cmd
}
