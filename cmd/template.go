package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
)

var templateOut string

// templateColumns is the canonical feed header, with one example row
// so suppliers can see the expected shapes.
var templateColumns = []string{
	"name", "description", "price", "currency", "images",
	"vendor_name", "vendor_url", "category", "external_id", "source_url", "source",
}

var templateExampleRow = []string{
	"Gold Candelabra", "Five-arm brass candelabra, 24in tall", "49.99", "USD",
	"https://example.com/images/candelabra-1.jpg|https://example.com/images/candelabra-2.jpg",
	"Golden Hour Rentals", "https://goldenhour.example", "centerpieces",
	"gh-cand-01", "https://goldenhour.example/products/candelabra", "manual",
}

var templateCmd = &cobra.Command{
	Use:       "template <csv|json|xlsx>",
	Short:     "Write a starter feed template for manual imports",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"csv", "json", "xlsx"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]

		out := templateOut
		if out == "" {
			out = "product-import-template." + format
		}

		switch format {
		case "csv":
			content := strings.Join(templateColumns, ",") + "\n" + strings.Join(templateExampleRow, ",") + "\n"
			if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
				return eris.Wrapf(err, "write %s", out)
			}
		case "json":
			example := map[string]string{}
			for i, col := range templateColumns {
				if col == "images" {
					continue
				}
				example[col] = templateExampleRow[i]
			}
			doc := map[string]any{
				"products": []any{
					map[string]any{
						"name":         example["name"],
						"description":  example["description"],
						"price":        49.99,
						"currency":     example["currency"],
						"images":       strings.Split(templateExampleRow[4], "|"),
						"vendor_name":  example["vendor_name"],
						"vendor_url":   example["vendor_url"],
						"raw_category": example["category"],
						"external_id":  example["external_id"],
						"source_url":   example["source_url"],
						"source":       example["source"],
					},
				},
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return eris.Wrap(err, "marshal template")
			}
			if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
				return eris.Wrapf(err, "write %s", out)
			}
		case "xlsx":
			f := xlsx.NewFile()
			sheet, err := f.AddSheet("Products")
			if err != nil {
				return eris.Wrap(err, "create template sheet")
			}
			for _, row := range [][]string{templateColumns, templateExampleRow} {
				r := sheet.AddRow()
				for _, cell := range row {
					r.AddCell().SetString(cell)
				}
			}
			if err := f.Save(out); err != nil {
				return eris.Wrapf(err, "write %s", out)
			}
		default:
			return eris.Errorf("unknown template format %q (want csv, json, or xlsx)", format)
		}

		fmt.Printf("Wrote %s template to %s\n", format, out)
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVar(&templateOut, "out", "", "output path (default product-import-template.<format>)")
	rootCmd.AddCommand(templateCmd)
}
