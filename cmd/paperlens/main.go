package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reslab/paperlens/internal/cli"
	"github.com/reslab/paperlens/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "paperlens",
		Short: "Paperlens CLI - research paper analysis",
		Long: `Paperlens CLI uploads research papers and inspects their analyses.

Environment variables:
  PAPERLENS_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AnalyzeCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.ShowCmd())
	rootCmd.AddCommand(client.CitationsCmd())
	rootCmd.AddCommand(client.StatusCmd())
	rootCmd.AddCommand(client.ReportCmd())
	rootCmd.AddCommand(client.CompareCmd())
	rootCmd.AddCommand(client.ChatCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
