package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giantswarm/prompt-lab/internal/llm"
)

func newGenerateCmd() *cobra.Command {
	var (
		client      clientFlags
		systemFile  string
		mime        string
		temperature float64
		maxTokens   int
		showTokens  bool
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt-or-file>",
		Short: "Send a single prompt to the model and print the response",
		Long: `Send one ad-hoc prompt to the configured backend, outside of any prompt
set. The argument is either the prompt text itself or a path to a file
containing it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			prompt, err := textOrFile(args[0])
			if err != nil {
				return err
			}

			var system string
			if systemFile != "" {
				data, err := os.ReadFile(systemFile)
				if err != nil {
					return fmt.Errorf("failed to read system prompt file: %w", err)
				}
				system = strings.TrimSpace(string(data))
			}

			llmClient, err := client.newClient(ctx, "")
			if err != nil {
				return err
			}

			output, err := llmClient.Generate(ctx, llm.GenerateRequest{
				Prompt:      prompt,
				System:      system,
				MIME:        mime,
				Temperature: temperature,
				MaxTokens:   maxTokens,
			})
			if err != nil {
				return err
			}

			fmt.Println(strings.TrimSpace(output))

			if showTokens {
				if n, err := llmClient.CountTokens(ctx, prompt); err == nil {
					fmt.Fprintf(os.Stderr, "\nprompt tokens: %d\n", n)
				} else {
					fmt.Fprintf(os.Stderr, "\nprompt tokens: unavailable (%v)\n", err)
				}
			}
			return nil
		},
	}

	client.register(cmd.Flags())
	cmd.Flags().StringVar(&systemFile, "system", "", "Path to a file holding the system prompt")
	cmd.Flags().StringVar(&mime, "mime", "", "Response MIME type (e.g. application/json)")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "Temperature for generation")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 256, "Max output tokens")
	cmd.Flags().BoolVar(&showTokens, "show-tokens", false, "Print the prompt token count to stderr")

	return cmd
}

// textOrFile treats the argument as a file path when a file exists at that
// path, and as literal text otherwise.
func textOrFile(arg string) (string, error) {
	info, err := os.Stat(arg)
	if err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return arg, nil
}
