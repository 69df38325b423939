package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "xmlstruct",
	Short:         "Resolve XML records into typed rows",
	Long:          `xmlstruct splits XML (or JSON lines) input into records, resolves each catalog field and writes typed rows.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCmd.Version = version

	rootCmd.AddCommand(materializeCmd)
	rootCmd.AddCommand(catalogCmd)

	rootCmd.PersistentFlags().String("config", "", "path to a TOML serde config")
	rootCmd.PersistentFlags().String("catalog", "", "catalog definition file (.json, .yaml)")
	rootCmd.PersistentFlags().String("catalog-type", "", "catalog as a struct type string")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
