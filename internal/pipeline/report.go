package pipeline

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/everafter-market/ingest-cli/internal/model"
)

// reportErrorDisplayCap limits how many error samples Format prints.
const reportErrorDisplayCap = 10

// Report summarizes one completed import batch.
type Report struct {
	BatchID  string            `json:"batch_id"`
	Source   string            `json:"source"`
	Stats    model.ImportStats `json:"stats"`
	Errors   []string          `json:"errors,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// Format renders a human-readable summary for the CLI.
func (r *Report) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Import batch %s (%s) finished in %s\n", r.BatchID, r.Source, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  total:      %d\n", r.Stats.Total)
	fmt.Fprintf(&b, "  imported:   %d\n", r.Stats.Imported)
	fmt.Fprintf(&b, "  failed:     %d\n", r.Stats.Failed)
	fmt.Fprintf(&b, "  duplicates: %d\n", r.Stats.Duplicates)

	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "errors:\n")
		shown := r.Errors
		if len(shown) > reportErrorDisplayCap {
			shown = shown[:reportErrorDisplayCap]
		}
		for _, e := range shown {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
		if extra := len(r.Errors) - len(shown); extra > 0 {
			fmt.Fprintf(&b, "  ... and %d more\n", extra)
		}
	}

	return b.String()
}

// Log emits the structured summary.
func (r *Report) Log() {
	zap.L().Info("pipeline: batch complete",
		zap.String("batch_id", r.BatchID),
		zap.String("source", r.Source),
		zap.Int("total", r.Stats.Total),
		zap.Int("imported", r.Stats.Imported),
		zap.Int("failed", r.Stats.Failed),
		zap.Int("duplicates", r.Stats.Duplicates),
		zap.Duration("duration", r.Duration),
	)
}
