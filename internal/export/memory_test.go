package export

import (
	"context"
	"testing"
	"time"

	"credipart/internal/core"
)

func TestMemoryLedgerAppend(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	entry := LedgerEntry{
		PaidAt:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CreditID:      1,
		InstallmentID: 7,
		Participant:   "alba",
		Amount:        core.Money{Cents: 51365},
		DueMonth:      core.YearMonth{Year: 2025, Month: time.March},
	}

	ref, err := ledger.Append(ctx, entry)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	ref2, err := ledger.Append(ctx, entry)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref2 != "mem:2" {
		t.Errorf("ref = %q, want mem:2", ref2)
	}

	entries := ledger.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Participant != "alba" || entries[0].Amount.Cents != 51365 {
		t.Errorf("entry = %+v", entries[0])
	}

	// Entries returns a copy; mutating it does not affect the ledger.
	entries[0].Participant = "mutated"
	if ledger.Entries()[0].Participant != "alba" {
		t.Error("Entries() exposed internal state")
	}
}
