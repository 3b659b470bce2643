package model

import "time"

// BatchStatus represents the lifecycle state of an import batch.
// Both completed and failed are terminal; a batch leaves processing
// exactly once.
type BatchStatus string

const (
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// ImportBatch records one ingestion run: fixed total at creation,
// counters and error samples accumulated during the run, finalized once.
type ImportBatch struct {
	ID             string      `json:"id"`
	Source         string      `json:"source"`
	Status         BatchStatus `json:"status"`
	TotalItems     int         `json:"total_items"`
	ImportedItems  int         `json:"imported_items"`
	FailedItems    int         `json:"failed_items"`
	DuplicateItems int         `json:"duplicate_items"`
	Errors         []string    `json:"errors,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ImportStats holds the per-run counters mutated by the pipeline loop.
// At completion Imported + Failed + Duplicates == Total.
type ImportStats struct {
	Total      int `json:"total"`
	Imported   int `json:"imported"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`
}
