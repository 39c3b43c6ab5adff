package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// CompareAPIRequest represents the compare API request.
type CompareAPIRequest struct {
	PaperIDs []string `json:"paper_ids"`
}

// CompareAPIResponse represents the compare API response.
type CompareAPIResponse struct {
	ID        string   `json:"id"`
	PaperIDs  []string `json:"paper_ids"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"created_at"`
}

// CompareCmd creates the compare command.
func CompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <paper_id> <paper_id> [paper_id...]",
		Short: "Compare analyzed papers against each other",
		Long:  "Runs a cross-paper comparison over the latest summaries of two or more analyzed papers.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCompare(cmd, args, outputJSON)
		},
	}

	return cmd
}

func runCompare(cmd *cobra.Command, paperIDs []string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/compare", CompareAPIRequest{PaperIDs: paperIDs})
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	var comparison CompareAPIResponse
	if err := json.Unmarshal(resp.Data, &comparison); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(comparison, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Comparison %s (%d papers)\n\n%s\n", comparison.ID, len(comparison.PaperIDs), comparison.Content)
	return nil
}
