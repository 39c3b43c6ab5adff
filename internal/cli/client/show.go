package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ShowAPIResponse represents the paper detail API response.
type ShowAPIResponse struct {
	Paper     Paper         `json:"paper"`
	Analyses  []StageResult `json:"analyses"`
	Citations []Citation    `json:"citations"`
}

// ShowCmd creates the show command.
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <paper_id>",
		Short:   "Show a paper with its analysis history",
		Long:    "Retrieves a paper by ID and displays its stage results and citations.",
		Aliases: []string{"get"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runShow(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runShow(cmd *cobra.Command, paperID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/papers/" + paperID)
	if err != nil {
		return fmt.Errorf("show failed: %w", err)
	}

	var detail ShowAPIResponse
	if err := json.Unmarshal(resp.Data, &detail); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(detail, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	p := detail.Paper
	title := p.Title
	if title == "" {
		title = p.Filename
	}
	fmt.Printf("%s\n", title)
	fmt.Printf("State: %s\n", p.State)
	fmt.Printf("File: %s (%d pages, %d chars)\n", p.Filename, p.PageCount, p.CharCount)
	if p.Abstract != "" {
		fmt.Printf("\nAbstract:\n%s\n", p.Abstract)
	}

	if len(detail.Analyses) > 0 {
		fmt.Printf("\n%s\n", strings.Repeat("=", 60))
		for _, sr := range detail.Analyses {
			fmt.Printf("\n[%s] (run %s, seq %d)\n\n%s\n", sr.Stage, sr.RunID, sr.Seq, sr.Content)
		}
	}

	if len(detail.Citations) > 0 {
		fmt.Printf("\n%s\nCitations (%d):\n", strings.Repeat("=", 60), len(detail.Citations))
		for _, c := range detail.Citations {
			printCitation(&c)
		}
	}

	return nil
}

func printCitation(c *Citation) {
	line := fmt.Sprintf("  [%s] %s", c.Type, c.Identifier)
	if c.Title != "" {
		line += " - " + c.Title
	}
	if c.Year > 0 {
		line += fmt.Sprintf(" (%d)", c.Year)
	}
	fmt.Println(line)
	if c.Authors != "" {
		fmt.Printf("      %s\n", c.Authors)
	}
	if c.CitationCount > 0 {
		fmt.Printf("      cited %d times\n", c.CitationCount)
	}
}
