package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "scheduler",
		Short:        "Clinic appointment pipeline",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(patientCmd())
	rootCmd.AddCommand(requestCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
