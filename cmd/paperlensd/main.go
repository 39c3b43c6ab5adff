package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reslab/paperlens/internal/cli"
	"github.com/reslab/paperlens/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "paperlensd",
		Short: "Paperlens daemon",
		Long:  "Paperlens daemon for running the API server and background analysis worker",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
