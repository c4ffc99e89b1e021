package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/prompt-lab/internal/promptset"
)

func newListCmd() *cobra.Command {
	var setsDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available prompt sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := promptset.List(setsDir)
			if err != nil {
				return fmt.Errorf("failed to list prompt sets: %w", err)
			}

			if len(names) == 0 {
				fmt.Println("No prompt sets found.")
				return nil
			}

			fmt.Printf("Available prompt sets:\n\n")
			for _, name := range names {
				set, err := promptset.Load(name, setsDir)
				if err != nil {
					fmt.Printf("  - %s (error loading: %v)\n", name, err)
					continue
				}
				fmt.Printf("  - %s\n", set.Name)
				fmt.Printf("    Model: %s\n", set.Defaults.Model)
				fmt.Printf("    Variants: %d\n", len(set.Variants))
				fmt.Printf("    Cases: %d\n\n", len(set.Cases))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&setsDir, "sets-dir", "", "External prompt sets directory")

	return cmd
}
