package loan

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"credipart/internal/core"
)

func terms(principalCents int64, rate float64, months int, feesCents int64, participants ...int64) core.LoanTerms {
	return core.LoanTerms{
		Principal:         core.Money{Cents: principalCents},
		AnnualRatePercent: rate,
		DurationMonths:    months,
		Fees:              core.Money{Cents: feesCents},
		StartMonth:        core.YearMonth{Year: 2024, Month: time.January},
		ParticipantIDs:    participants,
	}
}

// 12000 at 0% over 12 months, one participant: twelve flat payments of 1000.
func TestComputeScheduleZeroInterest(t *testing.T) {
	s, err := ComputeSchedule(terms(1200000, 0, 12, 0, 7))
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if s.MonthlyPayment.Cents != 100000 {
		t.Fatalf("monthly payment: expected 1000.00, got %s", s.MonthlyPayment)
	}
	if s.TotalDue.Cents != 1200000 {
		t.Fatalf("total due: expected 12000.00, got %s", s.TotalDue)
	}
	if s.PaymentPerParticipant.Cents != 100000 {
		t.Fatalf("per participant: expected 1000.00, got %s", s.PaymentPerParticipant)
	}
	if len(s.Installments) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(s.Installments))
	}
}

// 12000 at 5% over 12 months with 68.24 fees, two participants. The annuity
// formula gives 1027.29/month; shares are half that, rounded half-up.
func TestComputeScheduleWithInterest(t *testing.T) {
	s, err := ComputeSchedule(terms(1200000, 5, 12, 6824, 1, 2))
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if s.MonthlyPayment.Cents != 102729 {
		t.Fatalf("monthly payment: expected 1027.29, got %s", s.MonthlyPayment)
	}
	wantTotal := int64(102729*12 + 6824)
	if s.TotalDue.Cents != wantTotal {
		t.Fatalf("total due: expected %d cents, got %s", wantTotal, s.TotalDue)
	}
	if s.PaymentPerParticipant.Cents != 51365 {
		t.Fatalf("per participant: expected 513.65, got %s", s.PaymentPerParticipant)
	}
	if len(s.Installments) != 24 {
		t.Fatalf("expected 24 installments, got %d", len(s.Installments))
	}
}

// Every (participant, month offset) pair appears exactly once, months are
// contiguous from the start month and days are pinned to the 1st.
func TestComputeScheduleCoversAllPairs(t *testing.T) {
	start := core.YearMonth{Year: 2024, Month: time.November}
	tm := terms(500000, 3.5, 14, 0, 10, 20, 30)
	tm.StartMonth = start

	s, err := ComputeSchedule(tm)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(s.Installments) != 14*3 {
		t.Fatalf("expected %d installments, got %d", 14*3, len(s.Installments))
	}

	type pair struct {
		pid    int64
		offset int
	}
	seen := make(map[pair]bool)
	for _, inst := range s.Installments {
		offset := (inst.DueMonth.Year-start.Year)*12 + int(inst.DueMonth.Month) - int(start.Month)
		if offset < 0 || offset >= 14 {
			t.Fatalf("due month %v outside the loan window", inst.DueMonth)
		}
		p := pair{inst.ParticipantID, offset}
		if seen[p] {
			t.Fatalf("duplicate installment for participant %d month %d", p.pid, p.offset)
		}
		seen[p] = true
		if inst.Status != core.InstallmentUnpaid {
			t.Fatalf("new installment not unpaid: %v", inst.Status)
		}
		if inst.Amount != s.PaymentPerParticipant {
			t.Fatalf("installment amount %s differs from share %s", inst.Amount, s.PaymentPerParticipant)
		}
		if got := inst.DueMonth.FirstDay(); got.Day() != 1 {
			t.Fatalf("due date not pinned to the 1st: %s", got)
		}
	}
	if len(seen) != 14*3 {
		t.Fatalf("expected %d distinct pairs, got %d", 14*3, len(seen))
	}
}

func TestComputeScheduleDeterministic(t *testing.T) {
	tm := terms(987654, 4.2, 18, 1500, 3, 1, 2)
	a, err := ComputeSchedule(tm)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	b, err := ComputeSchedule(tm)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two runs over identical terms disagree")
	}
}

func TestComputeScheduleRejectsBadTerms(t *testing.T) {
	cases := []struct {
		name string
		tm   core.LoanTerms
	}{
		{"zero principal", terms(0, 5, 12, 0, 1)},
		{"negative principal", terms(-100, 5, 12, 0, 1)},
		{"zero duration", terms(100000, 5, 0, 0, 1)},
		{"negative rate", terms(100000, -1, 12, 0, 1)},
		{"negative fees", terms(100000, 5, 12, -1, 1)},
		{"no participants", terms(100000, 5, 12, 0)},
		{"duplicate participants", terms(100000, 5, 12, 0, 4, 4)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ComputeSchedule(tc.tm); !errors.Is(err, ErrInvalidLoanTerms) {
				t.Fatalf("expected ErrInvalidLoanTerms, got %v", err)
			}
		})
	}
}

func TestMarkPaid(t *testing.T) {
	inst := core.Installment{ID: 9, Status: core.InstallmentUnpaid}

	paid, err := MarkPaid(inst)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if paid.Status != core.InstallmentPaid {
		t.Fatalf("expected paid, got %v", paid.Status)
	}

	// Second confirmation is a double-submission, both times.
	if _, err := MarkPaid(paid); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}
	if _, err := MarkPaid(paid); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid again, got %v", err)
	}
}

func TestMarkPaidUnknownStatus(t *testing.T) {
	if _, err := MarkPaid(core.Installment{Status: "pending"}); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
