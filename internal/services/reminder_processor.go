package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"credipart/internal/amqp"
	"credipart/internal/core"
	applog "credipart/internal/log"
)

// ReminderProcessorConfig holds configuration for the reminder processor.
type ReminderProcessorConfig struct {
	// Interval is how often to scan for due installments.
	Interval time.Duration

	// BatchSize caps the number of reminder events published per scan.
	BatchSize int
}

func DefaultReminderProcessorConfig() ReminderProcessorConfig {
	return ReminderProcessorConfig{
		Interval:  12 * time.Hour,
		BatchSize: 25,
	}
}

// ReminderProcessor periodically scans for unpaid installments whose due
// month has arrived and publishes a due event for each. Events carry only
// identifiers; consumers fetch current state so a reminder for an
// installment paid in the meantime is harmless.
type ReminderProcessor struct {
	store     CreditStore
	publisher EventPublisher
	config    ReminderProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReminderProcessor(store CreditStore, publisher EventPublisher, config ReminderProcessorConfig) *ReminderProcessor {
	return &ReminderProcessor{
		store:     store,
		publisher: publisher,
		config:    config,
	}
}

// Start begins the scan loop. Returns an error if already running.
func (p *ReminderProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("reminder processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Reminder processor started",
		"interval", p.config.Interval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ReminderProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Reminder processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

func (p *ReminderProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReminderProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Scan immediately on startup.
	p.scan(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.scan(ctx)
		}
	}
}

// scan publishes one due event per unpaid installment due this month or
// earlier, up to the batch cap.
func (p *ReminderProcessor) scan(ctx context.Context) {
	now := time.Now()
	current := core.YearMonthOf(now)

	due, err := p.store.ListDueInstallments(ctx, current, 0)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list due installments", applog.FieldError, err)
		return
	}
	if len(due) == 0 {
		return
	}
	if len(due) > p.config.BatchSize {
		slog.WarnContext(ctx, "Due installments exceed batch size, truncating",
			"due", len(due),
			"batch_size", p.config.BatchSize)
		due = due[:p.config.BatchSize]
	}

	slog.InfoContext(ctx, "Publishing installment reminders",
		"count", len(due),
		"month", current.String())

	for _, inst := range due {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		event := amqp.NewInstallmentDueEvent(inst.CreditID, inst.ID, inst.ParticipantID)
		if err := p.publisher.Publish(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed to publish due event",
				applog.FieldInstallment, inst.ID,
				applog.FieldError, err)
		}
	}
}
