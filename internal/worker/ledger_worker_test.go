package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"credipart/internal/amqp"
	"credipart/internal/core"
	"credipart/internal/export"
	"credipart/internal/loan"
	"credipart/internal/storage"
)

func setupWorker(t *testing.T) (*LedgerWorker, *storage.Repository, *export.MemoryLedger) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	ledger := export.NewMemoryLedger()
	return NewLedgerWorker(repo, ledger), repo, ledger
}

func seedPaidInstallment(t *testing.T, repo *storage.Repository) core.Installment {
	t.Helper()
	ctx := context.Background()

	participant, err := repo.CreateParticipant(ctx, "alba")
	if err != nil {
		t.Fatalf("CreateParticipant() error = %v", err)
	}
	terms := core.LoanTerms{
		Principal:         core.Money{Cents: 1200000},
		AnnualRatePercent: 0,
		DurationMonths:    12,
		StartMonth:        core.YearMonth{Year: 2025, Month: time.March},
		ParticipantIDs:    []int64{participant.ID},
	}
	schedule, err := loan.ComputeSchedule(terms)
	if err != nil {
		t.Fatalf("ComputeSchedule() error = %v", err)
	}
	credit := core.Credit{
		Amount:         terms.Principal,
		TotalAmount:    schedule.TotalDue,
		MonthlyPayment: schedule.MonthlyPayment,
		DurationMonths: terms.DurationMonths,
		StartMonth:     terms.StartMonth,
	}
	saved, err := repo.CreateCredit(ctx, credit, schedule.Installments)
	if err != nil {
		t.Fatalf("CreateCredit() error = %v", err)
	}
	installments, err := repo.ListInstallments(ctx, saved.ID)
	if err != nil {
		t.Fatalf("ListInstallments() error = %v", err)
	}
	target := installments[0]
	if err := repo.UpdateInstallmentStatus(ctx, target.ID, core.InstallmentPaid); err != nil {
		t.Fatalf("UpdateInstallmentStatus() error = %v", err)
	}
	target.Status = core.InstallmentPaid
	return target
}

func TestHandlePaidAppendsLedgerEntry(t *testing.T) {
	w, repo, ledger := setupWorker(t)
	inst := seedPaidInstallment(t, repo)

	event := amqp.NewInstallmentPaidEvent(inst.CreditID, inst.ID, inst.ParticipantID)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}

	entries := ledger.Entries()
	if len(entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.InstallmentID != inst.ID || entry.CreditID != inst.CreditID {
		t.Errorf("entry ids = %+v", entry)
	}
	if entry.Participant != "alba" {
		t.Errorf("participant = %q, want alba", entry.Participant)
	}
	if entry.Amount != inst.Amount {
		t.Errorf("amount = %v, want %v", entry.Amount, inst.Amount)
	}
	if entry.DueMonth != inst.DueMonth {
		t.Errorf("due month = %v, want %v", entry.DueMonth, inst.DueMonth)
	}
}

func TestHandlePaidSkipsUnpaidInstallment(t *testing.T) {
	w, repo, ledger := setupWorker(t)
	inst := seedPaidInstallment(t, repo)

	// Flip back to unpaid to simulate a stale event.
	if err := repo.UpdateInstallmentStatus(context.Background(), inst.ID, core.InstallmentUnpaid); err != nil {
		t.Fatal(err)
	}

	event := amqp.NewInstallmentPaidEvent(inst.CreditID, inst.ID, inst.ParticipantID)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(ledger.Entries()) != 0 {
		t.Error("ledger entry written for unpaid installment")
	}
}

func TestHandlePaidMissingInstallmentIsNotAnError(t *testing.T) {
	w, _, ledger := setupWorker(t)

	event := amqp.NewInstallmentPaidEvent(1, 999, 1)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v, want nil (skip, no requeue)", err)
	}
	if len(ledger.Entries()) != 0 {
		t.Error("ledger entry written for missing installment")
	}
}

func TestHandleEventUnknownKindDropped(t *testing.T) {
	w, _, _ := setupWorker(t)

	event := &amqp.InstallmentEvent{EventID: "x", Kind: "installment.exploded"}
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Errorf("HandleEvent() error = %v, want nil for unknown kind", err)
	}
}

func TestHandleDuePaidInTheMeantime(t *testing.T) {
	w, repo, ledger := setupWorker(t)
	inst := seedPaidInstallment(t, repo)

	event := amqp.NewInstallmentDueEvent(inst.CreditID, inst.ID, inst.ParticipantID)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if len(ledger.Entries()) != 0 {
		t.Error("due event wrote a ledger entry")
	}
}
