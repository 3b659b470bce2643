package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scrapeOut   string
	scrapeStage bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <source> <query>",
	Short: "Scrape products from amazon or etsy",
	Long:  "Runs the source adapter for the query and writes the normalized candidates to a JSON feed file. With --stage the candidates are also imported into the review queue.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		source, query := args[0], args[1]

		s, err := buildScraper(source)
		if err != nil {
			return err
		}
		if err := s.ValidateConfig(); err != nil {
			return err
		}

		result, err := s.Scrape(ctx, query)
		if err != nil {
			return eris.Wrapf(err, "scrape %s", source)
		}

		zap.L().Info("scrape finished",
			zap.String("source", source),
			zap.String("query", query),
			zap.Int("total", result.Stats.Total),
			zap.Int("successful", result.Stats.Successful),
			zap.Int("failed", result.Stats.Failed),
		)
		for _, e := range result.Errors {
			zap.L().Warn("scrape item error", zap.String("error", e))
		}

		out := scrapeOut
		if out == "" {
			out = filepath.Join(cfg.Import.DataDir, fmt.Sprintf("%s-%d.json", source, time.Now().Unix()))
		}
		if err := writeCandidatesFile(out, result.Candidates); err != nil {
			return err
		}
		fmt.Printf("Wrote %d candidates to %s\n", len(result.Candidates), out)

		if scrapeStage {
			env, err := initEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			report, err := env.Pipeline.ImportCandidates(ctx, source, result.Candidates)
			if err != nil {
				return err
			}
			fmt.Print(report.Format())
		}

		return nil
	},
}

// writeCandidatesFile writes candidates as a JSON feed the import
// command can re-read.
func writeCandidatesFile(path string, candidates any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "create output dir %s", dir)
		}
	}

	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal candidates")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "", "output file path (default <data_dir>/<source>-<timestamp>.json)")
	scrapeCmd.Flags().BoolVar(&scrapeStage, "stage", false, "import the scraped candidates immediately")
	rootCmd.AddCommand(scrapeCmd)
}
