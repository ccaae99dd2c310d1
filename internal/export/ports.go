// Package export appends confirmed installment payments to an external
// ledger. The Google Sheets adapter is the production backend; the memory
// adapter serves tests and spreadsheet-less deployments.
package export

import (
	"context"
	"time"

	"credipart/internal/core"
)

// LedgerEntry is one confirmed payment, ready to append as a ledger row.
type LedgerEntry struct {
	PaidAt        time.Time
	CreditID      int64
	InstallmentID int64
	Participant   string
	Amount        core.Money
	DueMonth      core.YearMonth
}

// LedgerAppender is the outbound port the worker writes through.
type LedgerAppender interface {
	Append(ctx context.Context, entry LedgerEntry) (rowRef string, err error)
}
