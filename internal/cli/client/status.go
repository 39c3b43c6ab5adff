package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "status <run_id>",
		Short: "Show the status of an analysis run",
		Long:  "Shows the run's status and, while it is executing, the current stage and partial output.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStatus(cmd, args[0], wait, outputJSON)
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the run reaches a terminal status")

	return cmd
}

func runStatus(cmd *cobra.Command, runID string, wait, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var status *RunStatusAPIResponse
	if wait {
		status, err = pollRun(api, runID, outputJSON)
		if err != nil {
			return err
		}
	} else {
		resp, err := api.Get("/runs/" + runID + "/status")
		if err != nil {
			return fmt.Errorf("status check failed: %w", err)
		}
		status = &RunStatusAPIResponse{}
		if err := json.Unmarshal(resp.Data, status); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	if outputJSON {
		output, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printRun(&status.Run)
	if status.CurrentStage != "" {
		fmt.Printf("  Current stage: %s\n", status.CurrentStage)
	}
	if status.PartialContent != "" {
		fmt.Printf("\nPartial output:\n%s\n", status.PartialContent)
	}

	return nil
}
