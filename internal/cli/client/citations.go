package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// CitationsCmd creates the citations command.
func CitationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "citations <paper_id>",
		Short: "List a paper's extracted citations",
		Long:  "Lists the citations extracted from a paper, with enrichment metadata where available.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCitations(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runCitations(cmd *cobra.Command, paperID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/papers/" + paperID + "/citations")
	if err != nil {
		return fmt.Errorf("citations failed: %w", err)
	}

	var citations []Citation
	if err := json.Unmarshal(resp.Data, &citations); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(citations, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(citations) == 0 {
		fmt.Println("No citations found. Has the paper been analyzed yet?")
		return nil
	}

	fmt.Printf("Found %d citations:\n", len(citations))
	for _, c := range citations {
		printCitation(&c)
	}

	return nil
}
