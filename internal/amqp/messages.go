package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event kinds carried on the installment events queue.
const (
	EventCreditCreated   = "credit.created"
	EventInstallmentPaid = "installment.paid"
	EventInstallmentDue  = "installment.due"
)

// InstallmentEvent is a lightweight notification. It carries identifiers
// only; the worker fetches current state from the database so stale
// deliveries cannot overwrite newer data.
type InstallmentEvent struct {
	EventID       string    `json:"event_id"`
	Kind          string    `json:"kind"`
	CreditID      int64     `json:"credit_id"`
	InstallmentID int64     `json:"installment_id,omitempty"`
	ParticipantID int64     `json:"participant_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewCreditCreatedEvent(creditID int64) *InstallmentEvent {
	return &InstallmentEvent{
		EventID:   uuid.NewString(),
		Kind:      EventCreditCreated,
		CreditID:  creditID,
		Timestamp: time.Now(),
	}
}

func NewInstallmentPaidEvent(creditID, installmentID, participantID int64) *InstallmentEvent {
	return &InstallmentEvent{
		EventID:       uuid.NewString(),
		Kind:          EventInstallmentPaid,
		CreditID:      creditID,
		InstallmentID: installmentID,
		ParticipantID: participantID,
		Timestamp:     time.Now(),
	}
}

func NewInstallmentDueEvent(creditID, installmentID, participantID int64) *InstallmentEvent {
	return &InstallmentEvent{
		EventID:       uuid.NewString(),
		Kind:          EventInstallmentDue,
		CreditID:      creditID,
		InstallmentID: installmentID,
		ParticipantID: participantID,
		Timestamp:     time.Now(),
	}
}

func (m *InstallmentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func InstallmentEventFromJSON(data []byte) (*InstallmentEvent, error) {
	var msg InstallmentEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("event without kind")
	}
	return &msg, nil
}
