package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "vitalmine-server",
		Short:        "VitalMine clinical vitals and sepsis-risk server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(trainModelCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
