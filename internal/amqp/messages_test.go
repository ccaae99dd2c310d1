package amqp

import (
	"testing"
)

func TestInstallmentEventRoundTrip(t *testing.T) {
	event := NewInstallmentPaidEvent(7, 42, 3)
	if event.EventID == "" {
		t.Fatal("event id not set")
	}
	if event.Kind != EventInstallmentPaid {
		t.Fatalf("kind = %q, want %q", event.Kind, EventInstallmentPaid)
	}

	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	decoded, err := InstallmentEventFromJSON(body)
	if err != nil {
		t.Fatalf("InstallmentEventFromJSON() error = %v", err)
	}
	if decoded.EventID != event.EventID || decoded.CreditID != 7 ||
		decoded.InstallmentID != 42 || decoded.ParticipantID != 3 {
		t.Errorf("decoded = %+v, want %+v", decoded, event)
	}
}

func TestCreditCreatedEventOmitsInstallment(t *testing.T) {
	body, err := NewCreditCreatedEvent(11).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	decoded, err := InstallmentEventFromJSON(body)
	if err != nil {
		t.Fatalf("InstallmentEventFromJSON() error = %v", err)
	}
	if decoded.Kind != EventCreditCreated || decoded.CreditID != 11 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.InstallmentID != 0 {
		t.Errorf("installment id = %d, want 0", decoded.InstallmentID)
	}
}

func TestInstallmentEventFromJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing kind", `{"event_id":"x","credit_id":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := InstallmentEventFromJSON([]byte(tt.body)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEventIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		e := NewInstallmentDueEvent(1, int64(i), 1)
		if seen[e.EventID] {
			t.Fatalf("duplicate event id %q", e.EventID)
		}
		seen[e.EventID] = true
	}
}
