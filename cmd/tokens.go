package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokensCmd() *cobra.Command {
	var client clientFlags

	cmd := &cobra.Command{
		Use:   "tokens <text-or-file>",
		Short: "Count tokens for a piece of text",
		Long: `Count the tokens the backend's tokenizer sees in the given text. The
argument is either the text itself or a path to a file containing it.
Only the Gemini backend supports token counting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			text, err := textOrFile(args[0])
			if err != nil {
				return err
			}

			llmClient, err := client.newClient(ctx, "")
			if err != nil {
				return err
			}

			n, err := llmClient.CountTokens(ctx, text)
			if err != nil {
				return fmt.Errorf("token count unavailable: %w", err)
			}

			fmt.Printf("%d\n", n)
			return nil
		},
	}

	client.register(cmd.Flags())

	return cmd
}
