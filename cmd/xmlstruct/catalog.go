package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wehubfusion/xmlstruct/internal/app"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the resolved field catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := app.LoadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, f := range cat.Fields() {
			kind := f.Type().String()
			fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", f.Position(), f.Name(), f.Category(), kind)
		}
		return nil
	},
}
