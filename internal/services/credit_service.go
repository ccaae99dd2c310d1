// Package services orchestrates the pure engines (loan, timeline) with
// storage and messaging. Handlers call services, services call everything
// else.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credipart/internal/amqp"
	"credipart/internal/core"
	"credipart/internal/loan"
	applog "credipart/internal/log"
	"credipart/internal/storage"
)

// EventPublisher decouples services from the concrete AMQP client.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.InstallmentEvent) error
}

// CreditStore is the slice of the repository the credit service uses.
type CreditStore interface {
	CreateCredit(ctx context.Context, credit core.Credit, installments []core.Installment) (core.Credit, error)
	GetCredit(ctx context.Context, id int64) (core.Credit, error)
	ListCreditsByParticipant(ctx context.Context, participantID int64) ([]core.Credit, error)
	DeleteCredit(ctx context.Context, id int64) error
	ListInstallments(ctx context.Context, creditID int64) ([]core.Installment, error)
	GetInstallment(ctx context.Context, id int64) (core.Installment, error)
	UpdateInstallmentStatus(ctx context.Context, id int64, status core.InstallmentStatus) error
	ListDueInstallments(ctx context.Context, upTo core.YearMonth, participantID int64) ([]core.Installment, error)
	ListParticipants(ctx context.Context) ([]core.Participant, error)
	CreateParticipant(ctx context.Context, username string) (core.Participant, error)
}

// CreditService owns the shared-credit lifecycle: schedule computation,
// persistence and payment confirmation.
type CreditService struct {
	store     CreditStore
	publisher EventPublisher
}

func NewCreditService(store CreditStore, publisher EventPublisher) *CreditService {
	return &CreditService{store: store, publisher: publisher}
}

// CreditDetail bundles a credit with its full installment schedule.
type CreditDetail struct {
	Credit       core.Credit
	Installments []core.Installment
}

// CreateCredit computes the repayment schedule from the terms and persists
// credit and installments atomically. The derived totals are stored on the
// credit so list views never recompute them.
func (s *CreditService) CreateCredit(ctx context.Context, terms core.LoanTerms) (CreditDetail, error) {
	schedule, err := loan.ComputeSchedule(terms)
	if err != nil {
		return CreditDetail{}, err
	}

	credit := core.Credit{
		Amount:         terms.Principal,
		TotalAmount:    schedule.TotalDue,
		MonthlyPayment: schedule.MonthlyPayment,
		DurationMonths: terms.DurationMonths,
		InterestRate:   terms.AnnualRatePercent,
		Fees:           terms.Fees,
		StartMonth:     terms.StartMonth,
	}

	saved, err := s.store.CreateCredit(ctx, credit, schedule.Installments)
	if err != nil {
		return CreditDetail{}, fmt.Errorf("save credit: %w", err)
	}

	s.publish(ctx, amqp.NewCreditCreatedEvent(saved.ID))

	installments, err := s.store.ListInstallments(ctx, saved.ID)
	if err != nil {
		return CreditDetail{}, fmt.Errorf("load installments: %w", err)
	}
	return CreditDetail{Credit: saved, Installments: installments}, nil
}

func (s *CreditService) GetCredit(ctx context.Context, id int64) (CreditDetail, error) {
	credit, err := s.store.GetCredit(ctx, id)
	if err != nil {
		return CreditDetail{}, err
	}
	installments, err := s.store.ListInstallments(ctx, id)
	if err != nil {
		return CreditDetail{}, fmt.Errorf("load installments: %w", err)
	}
	return CreditDetail{Credit: credit, Installments: installments}, nil
}

func (s *CreditService) ListCreditsByParticipant(ctx context.Context, participantID int64) ([]core.Credit, error) {
	return s.store.ListCreditsByParticipant(ctx, participantID)
}

func (s *CreditService) DeleteCredit(ctx context.Context, id int64) error {
	return s.store.DeleteCredit(ctx, id)
}

// MarkInstallmentPaid confirms a payment. Confirming an already paid
// installment returns loan.ErrAlreadyPaid so double submissions surface
// instead of silently passing.
func (s *CreditService) MarkInstallmentPaid(ctx context.Context, installmentID int64) (core.Installment, error) {
	inst, err := s.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return core.Installment{}, err
	}

	paid, err := loan.MarkPaid(inst)
	if err != nil {
		if errors.Is(err, loan.ErrAlreadyPaid) {
			slog.WarnContext(ctx, "Duplicate payment confirmation",
				applog.FieldInstallment, installmentID,
				applog.FieldCreditID, inst.CreditID)
		}
		return inst, err
	}

	if err := s.store.UpdateInstallmentStatus(ctx, paid.ID, paid.Status); err != nil {
		return inst, fmt.Errorf("persist payment: %w", err)
	}
	paid.UpdatedAt = time.Now().UTC()

	s.publish(ctx, amqp.NewInstallmentPaidEvent(paid.CreditID, paid.ID, paid.ParticipantID))
	return paid, nil
}

// ListDueInstallments returns unpaid installments due up to and including
// the given month. participantID 0 means every participant.
func (s *CreditService) ListDueInstallments(ctx context.Context, upTo core.YearMonth, participantID int64) ([]core.Installment, error) {
	return s.store.ListDueInstallments(ctx, upTo, participantID)
}

func (s *CreditService) ListParticipants(ctx context.Context) ([]core.Participant, error) {
	return s.store.ListParticipants(ctx)
}

func (s *CreditService) CreateParticipant(ctx context.Context, username string) (core.Participant, error) {
	if len(username) == 0 || len(username) > 100 {
		return core.Participant{}, fmt.Errorf("%w: username must be 1-100 characters", core.ErrEmptyName)
	}
	return s.store.CreateParticipant(ctx, username)
}

// publish sends an event if messaging is configured. Event delivery is
// best effort; the database write already succeeded.
func (s *CreditService) publish(ctx context.Context, event *amqp.InstallmentEvent) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event", "kind", event.Kind)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"kind", event.Kind,
			applog.FieldCreditID, event.CreditID,
			applog.FieldError, err)
	}
}

var _ CreditStore = (*storage.Repository)(nil)
