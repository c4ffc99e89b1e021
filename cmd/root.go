package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prompt-lab",
	Short: "Prompt-variant evaluation harness",
	Long: `prompt-lab evaluates named prompt variants against a fixed set of labeled
test cases. Each applicable (variant, case) pair is rendered, sent to a
generative model, scored against the case's expectations, and exported as
both a CSV table and a structured JSON document.

Variants live in variants.yaml, cases in cases.json; an embedded demo set
is available out of the box. Results can also be browsed and re-run via an
MCP server ('prompt-lab serve').`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
}

var (
	buildCommit = "unknown"
	buildDate   = "unknown"
)

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// SetBuildInfo sets the commit and build date for the version command.
func SetBuildInfo(commit, date string) {
	buildCommit = commit
	buildDate = date
}

// Execute is the main entry point for the CLI application.
func Execute() {
	// Load a repo-root .env if present, without overriding the process
	// environment. Credentials resolve from here or the environment.
	_ = godotenv.Load()

	rootCmd.SetVersionTemplate(`{{printf "prompt-lab version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newTokensCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newServeCmd())

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}
