// Package sheets defines the export boundary for the family's ledger
// history spreadsheet.
package sheets

import (
	"context"
	"time"
)

// ExportEntry is one row of the exported ledger history.
type ExportEntry struct {
	Kind       string
	RecordID   string
	OwnerID    string
	Detail     string
	Amount     int64
	OccurredAt time.Time
}

// LedgerWriter appends ledger history rows to the export target.
type LedgerWriter interface {
	Append(ctx context.Context, e ExportEntry) (rowRef string, err error)
}
