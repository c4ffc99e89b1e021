package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/prompt-lab/internal/promptset"
	"github.com/giantswarm/prompt-lab/internal/runner"
	"github.com/giantswarm/prompt-lab/internal/scorer"
)

func newRunCmd() *cobra.Command {
	var (
		client      clientFlags
		setsDir     string
		outputDir   string
		temperature float64
		maxTokens   int
		onError     string
		countTokens bool
		strict      bool
		variants    []string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <prompt-set>",
		Short: "Evaluate every variant of a prompt set against its cases",
		Long: `Render each variant against each applicable case, invoke the model, score
the output, and write results.csv, results.json and run.json into a
per-run directory under the output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			set, err := promptset.Load(args[0], setsDir)
			if err != nil {
				return fmt.Errorf("failed to load prompt set: %w", err)
			}

			registry := scorer.NewRegistry()
			if strict {
				if err := set.ValidateTypes(registry.Types()); err != nil {
					return err
				}
			}

			if len(variants) > 0 {
				set.Variants, err = selectVariants(set, variants)
				if err != nil {
					return err
				}
			}

			if cmd.Flags().Changed("temperature") {
				set.Defaults.Temperature = temperature
			}
			if cmd.Flags().Changed("max-tokens") {
				set.Defaults.MaxOutputTokens = maxTokens
			}

			llmClient, err := client.newClient(ctx, set.Defaults.Model)
			if err != nil {
				return err
			}

			policy, err := runner.ParseErrorPolicy(onError)
			if err != nil {
				return err
			}

			r := runner.NewRunner(llmClient, registry, outputDir)
			r.SetErrorPolicy(policy)
			r.SetCountTokens(countTokens)
			r.SetProgressFunc(func(variant, caseID string, idx, total int) {
				fmt.Printf("\r  [%s -> %s] pair %d/%d...", variant, caseID, idx, total)
			})

			fmt.Printf("Prompt set: %s\n", set.Name)
			fmt.Printf("Variants: %d, cases: %d\n", len(set.Variants), len(set.Cases))
			fmt.Printf("Temperature: %.1f, max output tokens: %d\n\n", set.Defaults.Temperature, set.Defaults.MaxOutputTokens)

			run, err := r.Run(ctx, set)
			if err != nil {
				return err
			}

			fmt.Printf("\n\nEvaluation completed.\n")
			fmt.Printf("Run ID: %s\n", run.ID)
			fmt.Printf("Executed: %d, skipped: %d, failed: %d\n", run.Executed, run.Skipped, run.Failed)
			fmt.Printf("Results:\n  %s\n  %s\n", run.CSVFile, run.JSONFile)

			slog.Info("evaluation complete", "run_id", run.ID)
			return nil
		},
	}

	client.register(cmd.Flags())
	cmd.Flags().StringVar(&setsDir, "sets-dir", "", "External prompt sets directory")
	cmd.Flags().StringVar(&outputDir, "output-dir", "artifacts", "Directory for evaluation results")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "Temperature for generation (overrides set defaults)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 256, "Max output tokens (overrides set defaults)")
	cmd.Flags().StringVar(&onError, "on-error", string(runner.ErrorPolicyRecord), "Generation failure policy: record or abort")
	cmd.Flags().BoolVar(&countTokens, "count-tokens", false, "Record best-effort prompt token counts")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject cases whose type has no registered scorer")
	cmd.Flags().StringSliceVar(&variants, "variant", nil, "Run only these variant ids (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall timeout for the run (e.g. 30m). 0 means no timeout")

	return cmd
}

// selectVariants restricts a set to the requested variant ids, keeping
// declaration order. Unknown ids are a usage error.
func selectVariants(set *promptset.Set, ids []string) ([]promptset.Variant, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var selected []promptset.Variant
	for _, v := range set.Variants {
		if wanted[v.ID] {
			selected = append(selected, v)
			delete(wanted, v.ID)
		}
	}
	for id := range wanted {
		return nil, fmt.Errorf("variant %q not found in set %q", id, set.Name)
	}
	return selected, nil
}
