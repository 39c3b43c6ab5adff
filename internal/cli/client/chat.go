package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ChatAPIRequest represents the chat API request.
type ChatAPIRequest struct {
	PaperID  string `json:"paper_id"`
	Question string `json:"question"`
}

// ChatAPIResponse represents the chat API response.
type ChatAPIResponse struct {
	Answer string `json:"answer"`
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <paper_id> <question...>",
		Short: "Ask a question about an analyzed paper",
		Long:  "Answers a question using the paper's latest stage results as context. The paper must have been analyzed first.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChat(cmd, args[0], strings.Join(args[1:], " "), outputJSON)
		},
	}

	return cmd
}

func runChat(cmd *cobra.Command, paperID, question string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/chat", ChatAPIRequest{PaperID: paperID, Question: question})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	var chatResp ChatAPIResponse
	if err := json.Unmarshal(resp.Data, &chatResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(chatResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(chatResp.Answer)
	return nil
}
