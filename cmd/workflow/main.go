// Package main provides the workflow command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "workflow",
		Short: "Workflow engine",
		Long:  "Stores named flow definitions and executes them step by step.",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(
		newRunCmd(),
		newListCmd(),
		newCreateCmd(),
		newGetCmd(),
		newUpdateCmd(),
		newRenameCmd(),
		newEnableCmd(),
		newDisableCmd(),
		newDeleteCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
