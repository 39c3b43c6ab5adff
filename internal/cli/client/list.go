package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// ListAPIResponse represents the paper list API response.
type ListAPIResponse struct {
	Items   []Paper `json:"items"`
	Cursor  string  `json:"cursor,omitempty"`
	HasMore bool    `json:"has_more"`
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	var (
		filename string
		since    string
		limit    int
		cursor   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ingested papers",
		Long:  "Lists papers newest first with optional filename and date filtering.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(cmd, filename, since, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "Filter by filename substring")
	cmd.Flags().StringVar(&since, "since", "", "Only papers ingested after this time (RFC3339 format)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runList(cmd *cobra.Command, filename, since string, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	params := url.Values{}
	if filename != "" {
		params.Set("filename", filename)
	}
	if since != "" {
		params.Set("since", since)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	path := "/papers"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp ListAPIResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Println("No papers found.")
		return nil
	}

	fmt.Printf("Found %d papers:\n\n", len(listResp.Items))
	for i, p := range listResp.Items {
		title := p.Title
		if title == "" {
			title = p.Filename
		}
		fmt.Printf("%d. %s [%s]\n", i+1, title, p.State)
		fmt.Printf("   File: %s (%d pages)\n", p.Filename, p.PageCount)
		fmt.Printf("   Ingested: %s\n", p.CreatedAt)
		fmt.Printf("   ID: %s\n", p.ID)
		if i < len(listResp.Items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More results available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}
