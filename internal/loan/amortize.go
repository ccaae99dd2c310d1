// Package loan converts shared-credit terms into a fixed monthly payment
// and a per-participant repayment schedule using standard amortizing-loan
// arithmetic. All functions are pure; persistence belongs to the caller.
package loan

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"credipart/internal/core"
)

var (
	// ErrInvalidLoanTerms is wrapped by every precondition failure of
	// ComputeSchedule; use errors.Is to detect it.
	ErrInvalidLoanTerms = errors.New("invalid loan terms")

	// ErrAlreadyPaid guards against double-submission of a payment
	// confirmation. Marking a paid installment paid again is an error,
	// not a silent no-op.
	ErrAlreadyPaid = errors.New("installment already paid")
)

var (
	one           = decimal.NewFromInt(1)
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
)

// ComputeSchedule derives the full repayment plan from loan terms.
//
// The monthly payment is the standard annuity amount
//
//	P * r * (1+r)^n / ((1+r)^n - 1)
//
// with r the monthly rate (annual percent / 100 / 12) and n the duration in
// months. A zero-interest loan degenerates to principal / n. All monetary
// results are rounded half-up to 2 decimals only at the end; intermediate
// math keeps full decimal precision.
//
// Because each participant's share is rounded independently, the shares of
// one month may not sum exactly to the monthly payment. That cent-level
// discrepancy is accepted, not reconciled.
func ComputeSchedule(terms core.LoanTerms) (core.LoanSchedule, error) {
	if err := validateTerms(terms); err != nil {
		return core.LoanSchedule{}, err
	}

	principal := decimal.New(terms.Principal.Cents, -2)
	fees := decimal.New(terms.Fees.Cents, -2)
	months := decimal.NewFromInt(int64(terms.DurationMonths))
	monthlyRate := decimal.NewFromFloat(terms.AnnualRatePercent).Div(hundred).Div(monthsPerYear)

	var monthly decimal.Decimal
	if monthlyRate.IsZero() {
		monthly = principal.Div(months)
	} else {
		compound := one.Add(monthlyRate).Pow(months)
		monthly = principal.Mul(monthlyRate).Mul(compound).Div(compound.Sub(one))
	}
	monthly = monthly.Round(2)

	totalDue := monthly.Mul(months).Add(fees).Round(2)
	participants := int64(len(terms.ParticipantIDs))
	perParticipant := monthly.Div(decimal.NewFromInt(participants)).Round(2)

	schedule := core.LoanSchedule{
		MonthlyPayment:        toMoney(monthly),
		TotalDue:              toMoney(totalDue),
		PaymentPerParticipant: toMoney(perParticipant),
		Installments:          make([]core.Installment, 0, terms.DurationMonths*len(terms.ParticipantIDs)),
	}

	for m := 0; m < terms.DurationMonths; m++ {
		due := terms.StartMonth.AddMonths(m)
		for _, pid := range terms.ParticipantIDs {
			schedule.Installments = append(schedule.Installments, core.Installment{
				ParticipantID: pid,
				Amount:        schedule.PaymentPerParticipant,
				DueMonth:      due,
				Status:        core.InstallmentUnpaid,
			})
		}
	}

	return schedule, nil
}

// MarkPaid transitions an installment from unpaid to paid. It returns
// ErrAlreadyPaid when the installment was already settled.
func MarkPaid(inst core.Installment) (core.Installment, error) {
	switch inst.Status {
	case core.InstallmentUnpaid:
		inst.Status = core.InstallmentPaid
		return inst, nil
	case core.InstallmentPaid:
		return inst, ErrAlreadyPaid
	default:
		return inst, fmt.Errorf("installment %d has unknown status %q", inst.ID, inst.Status)
	}
}

func validateTerms(terms core.LoanTerms) error {
	if terms.Principal.Cents <= 0 {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidLoanTerms)
	}
	if terms.DurationMonths < 1 {
		return fmt.Errorf("%w: duration must be at least one month", ErrInvalidLoanTerms)
	}
	if terms.AnnualRatePercent < 0 {
		return fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidLoanTerms)
	}
	if terms.Fees.Cents < 0 {
		return fmt.Errorf("%w: fees cannot be negative", ErrInvalidLoanTerms)
	}
	if err := terms.StartMonth.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLoanTerms, err)
	}
	if len(terms.ParticipantIDs) == 0 {
		return fmt.Errorf("%w: at least one participant is required", ErrInvalidLoanTerms)
	}
	seen := make(map[int64]struct{}, len(terms.ParticipantIDs))
	for _, pid := range terms.ParticipantIDs {
		if _, dup := seen[pid]; dup {
			return fmt.Errorf("%w: duplicate participant %d", ErrInvalidLoanTerms, pid)
		}
		seen[pid] = struct{}{}
	}
	return nil
}

func toMoney(d decimal.Decimal) core.Money {
	return core.Money{Cents: d.Shift(2).IntPart()}
}
