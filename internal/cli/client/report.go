package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ReportCmd creates the report command.
func ReportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "report <run_id>",
		Short: "Download the markdown report for a finished run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args[0], outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output-file", "o", "", "Destination path (default <run_id>.md)")

	return cmd
}

func runReport(cmd *cobra.Command, runID, outputPath string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = runID + ".md"
	}

	if err := api.DownloadFile("/runs/"+runID+"/report", outputPath); err != nil {
		return fmt.Errorf("report download failed: %w", err)
	}

	fmt.Printf("Report saved to %s\n", outputPath)
	return nil
}
