package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a product feed into the review queue",
	Long:  "Parses a JSON, CSV, or XLSX feed (local path, http(s) URL, or ftp URL), categorizes each product, and stages the batch for review. Scrape output files import the same way.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Pipeline.ImportFromFile(ctx, env.Importer, args[0])
		if err != nil {
			return err
		}

		fmt.Print(report.Format())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
