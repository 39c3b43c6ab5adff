package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// UploadAPIResponse represents the upload API response.
type UploadAPIResponse struct {
	Paper Paper  `json:"paper"`
	RunID string `json:"run_id"`
}

// RunStatusAPIResponse represents the run status API response.
type RunStatusAPIResponse struct {
	Run            Run    `json:"run"`
	CurrentStage   string `json:"current_stage,omitempty"`
	PartialContent string `json:"partial_content,omitempty"`
}

// AnalyzeCmd creates the analyze command.
func AnalyzeCmd() *cobra.Command {
	var (
		promptType string
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file.pdf>",
		Short: "Upload a paper and queue its analysis",
		Long:  "Uploads a PDF, queues the four-stage analysis and prints the run ID. With --wait, polls until the run finishes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAnalyze(cmd, args[0], promptType, wait, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&promptType, "prompt", "t", "", "Prompt type (default|quick|methodology|contradictions|comparison|batch)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the analysis to finish")

	return cmd
}

func runAnalyze(cmd *cobra.Command, filePath, promptType string, wait, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.UploadPaper(filePath, promptType)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var upload UploadAPIResponse
	if err := json.Unmarshal(resp.Data, &upload); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !wait {
		if outputJSON {
			output, _ := json.MarshalIndent(upload, "", "  ")
			fmt.Println(string(output))
			return nil
		}
		fmt.Printf("Uploaded %s (paper %s)\n", upload.Paper.Filename, upload.Paper.ID)
		fmt.Printf("Analysis queued: run %s\n", upload.RunID)
		fmt.Printf("Check progress with 'paperlens status %s'\n", upload.RunID)
		return nil
	}

	if !outputJSON {
		fmt.Printf("Uploaded %s (paper %s), waiting for run %s...\n", upload.Paper.Filename, upload.Paper.ID, upload.RunID)
	}

	status, err := pollRun(api, upload.RunID, outputJSON)
	if err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printRun(&status.Run)
	return nil
}

func pollRun(api *APIClient, runID string, quiet bool) (*RunStatusAPIResponse, error) {
	lastStage := ""
	for {
		resp, err := api.Get("/runs/" + runID + "/status")
		if err != nil {
			return nil, fmt.Errorf("status check failed: %w", err)
		}

		var status RunStatusAPIResponse
		if err := json.Unmarshal(resp.Data, &status); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		if !quiet && status.CurrentStage != "" && status.CurrentStage != lastStage {
			fmt.Printf("  stage: %s\n", status.CurrentStage)
			lastStage = status.CurrentStage
		}

		switch status.Run.Status {
		case "completed", "partially_failed", "failed":
			return &status, nil
		}

		time.Sleep(2 * time.Second)
	}
}

func printRun(run *Run) {
	fmt.Printf("Run %s: %s\n", run.ID, run.Status)
	if run.LastStage != "" {
		fmt.Printf("  Last stage: %s\n", run.LastStage)
	}
	if run.Error != "" {
		fmt.Printf("  Error: %s\n", run.Error)
	}
	if run.RetryCount > 0 {
		fmt.Printf("  Retries: %d\n", run.RetryCount)
	}
}
