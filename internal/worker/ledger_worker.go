// Package worker consumes installment events and maintains the external
// payment ledger. It runs in its own process (cmd/credipart-worker) so a
// slow spreadsheet API never blocks the HTTP server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credipart/internal/amqp"
	"credipart/internal/core"
	"credipart/internal/export"
	applog "credipart/internal/log"
	"credipart/internal/services"
	"credipart/internal/storage"
)

// LedgerWorker turns installment events into ledger rows and reminder logs.
type LedgerWorker struct {
	store  services.CreditStore
	ledger export.LedgerAppender
}

func NewLedgerWorker(store services.CreditStore, ledger export.LedgerAppender) *LedgerWorker {
	return &LedgerWorker{store: store, ledger: ledger}
}

// HandleEvent dispatches one event. Unknown kinds are dropped so a newer
// publisher cannot wedge the queue with redeliveries.
func (w *LedgerWorker) HandleEvent(ctx context.Context, event *amqp.InstallmentEvent) error {
	switch event.Kind {
	case amqp.EventInstallmentPaid:
		return w.handlePaid(ctx, event)
	case amqp.EventInstallmentDue:
		return w.handleDue(ctx, event)
	case amqp.EventCreditCreated:
		slog.InfoContext(ctx, "Credit created", applog.FieldCreditID, event.CreditID)
		return nil
	default:
		slog.WarnContext(ctx, "Dropping event of unknown kind",
			"kind", event.Kind,
			"event_id", event.EventID)
		return nil
	}
}

// handlePaid appends the payment to the ledger. The event carries only
// identifiers; the row is built from current database state.
func (w *LedgerWorker) handlePaid(ctx context.Context, event *amqp.InstallmentEvent) error {
	inst, err := w.store.GetInstallment(ctx, event.InstallmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Credit deleted between publish and consume. Nothing to record.
			slog.WarnContext(ctx, "Paid installment no longer exists, skipping",
				applog.FieldInstallment, event.InstallmentID)
			return nil
		}
		return fmt.Errorf("get installment %d: %w", event.InstallmentID, err)
	}
	if inst.Status != core.InstallmentPaid {
		slog.WarnContext(ctx, "Installment not marked paid in database, skipping ledger entry",
			applog.FieldInstallment, inst.ID,
			"status", inst.Status)
		return nil
	}

	entry := export.LedgerEntry{
		PaidAt:        event.Timestamp,
		CreditID:      inst.CreditID,
		InstallmentID: inst.ID,
		Participant:   w.participantName(ctx, inst.ParticipantID),
		Amount:        inst.Amount,
		DueMonth:      inst.DueMonth,
	}
	if entry.PaidAt.IsZero() {
		entry.PaidAt = time.Now()
	}

	ref, err := w.ledger.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded in ledger",
		applog.FieldInstallment, inst.ID,
		applog.FieldCreditID, inst.CreditID,
		applog.FieldAmountCents, inst.Amount.Cents,
		applog.FieldLedgerRef, ref)
	return nil
}

// handleDue logs the reminder. Notification channels (mail, chat) hang off
// this hook; for now the structured log line is the notification.
func (w *LedgerWorker) handleDue(ctx context.Context, event *amqp.InstallmentEvent) error {
	inst, err := w.store.GetInstallment(ctx, event.InstallmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get installment %d: %w", event.InstallmentID, err)
	}
	if inst.Status == core.InstallmentPaid {
		// Paid after the reminder was queued.
		return nil
	}

	slog.InfoContext(ctx, "Installment payment reminder",
		applog.FieldInstallment, inst.ID,
		applog.FieldCreditID, inst.CreditID,
		"participant", w.participantName(ctx, inst.ParticipantID),
		applog.FieldDueMonth, inst.DueMonth.String(),
		applog.FieldAmountCents, inst.Amount.Cents)
	return nil
}

func (w *LedgerWorker) participantName(ctx context.Context, id int64) string {
	participants, err := w.store.ListParticipants(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to resolve participant name", applog.FieldParticipant, id, applog.FieldError, err)
		return fmt.Sprintf("#%d", id)
	}
	for _, p := range participants {
		if p.ID == id {
			return p.Username
		}
	}
	return fmt.Sprintf("#%d", id)
}
