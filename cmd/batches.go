package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/internal/store"
)

var (
	batchesSource string
	batchesStatus string
	batchesLimit  int
)

var batchesCmd = &cobra.Command{
	Use:   "batches [batch-id]",
	Short: "List import batches or show one batch in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if len(args) == 1 {
			batch, err := st.GetBatch(ctx, args[0])
			if err != nil {
				return err
			}
			printBatch(batch)
			return nil
		}

		batches, err := st.ListBatches(ctx, store.BatchFilter{
			Source: batchesSource,
			Status: model.BatchStatus(batchesStatus),
			Limit:  batchesLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tTOTAL\tIMPORTED\tFAILED\tDUPLICATES\tCREATED")
		for _, b := range batches {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				b.ID, b.Source, b.Status, b.TotalItems, b.ImportedItems, b.FailedItems, b.DuplicateItems,
				b.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

func printBatch(b *model.ImportBatch) {
	fmt.Printf("Batch:      %s\n", b.ID)
	fmt.Printf("Source:     %s\n", b.Source)
	fmt.Printf("Status:     %s\n", b.Status)
	fmt.Printf("Total:      %d\n", b.TotalItems)
	fmt.Printf("Imported:   %d\n", b.ImportedItems)
	fmt.Printf("Failed:     %d\n", b.FailedItems)
	fmt.Printf("Duplicates: %d\n", b.DuplicateItems)
	fmt.Printf("Created:    %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"))
	if len(b.Errors) > 0 {
		fmt.Println("Errors:")
		for _, e := range b.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}

func init() {
	batchesCmd.Flags().StringVar(&batchesSource, "source", "", "filter by source")
	batchesCmd.Flags().StringVar(&batchesStatus, "status", "", "filter by status (processing, completed, failed)")
	batchesCmd.Flags().IntVar(&batchesLimit, "limit", 50, "maximum batches to list")
	rootCmd.AddCommand(batchesCmd)
}
