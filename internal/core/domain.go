package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ProjectOngoing   ProjectStatus = "ongoing"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

const (
	InstallmentUnpaid InstallmentStatus = "unpaid"
	InstallmentPaid   InstallmentStatus = "paid"
)

type (
	ProjectStatus     string
	InstallmentStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Participant is a user who can take part in a shared credit.
	Participant struct {
		ID       int64
		Username string
	}

	// LoanTerms are the immutable inputs of a shared credit. Once a credit is
	// created its terms are never edited; the schedule is derived from them.
	LoanTerms struct {
		Principal         Money
		AnnualRatePercent float64
		DurationMonths    int
		Fees              Money
		StartMonth        YearMonth
		ParticipantIDs    []int64
	}

	// Credit is a persisted shared credit together with its derived totals.
	Credit struct {
		ID             int64
		Amount         Money // principal
		TotalAmount    Money // monthly payment x duration + fees
		MonthlyPayment Money
		DurationMonths int
		InterestRate   float64 // annual, percent
		Fees           Money
		StartMonth     YearMonth
		CreatedAt      time.Time
	}

	// Installment is one participant's share of one month's payment.
	Installment struct {
		ID            int64
		CreditID      int64
		ParticipantID int64
		Amount        Money
		DueMonth      YearMonth
		Status        InstallmentStatus
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// LoanSchedule is the full repayment plan derived from LoanTerms.
	// It is recomputed from the terms, never persisted independently.
	LoanSchedule struct {
		MonthlyPayment        Money
		TotalDue              Money
		PaymentPerParticipant Money
		Installments          []Installment
	}

	// Project is a time-boxed budget line rendered on the Gantt timeline.
	Project struct {
		ID          int64
		Name        string
		StartDate   Date
		EndDate     Date
		StudyAmount Money // budgeted amount
		Status      ProjectStatus
		Description string
		CreatedAt   time.Time
	}

	// Expense is a real cost booked against a project.
	Expense struct {
		ID        int64
		ProjectID int64
		Label     string
		Amount    Money
		SpentOn   Date
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyLabel     = errors.New("empty label")
	ErrEmptyName      = errors.New("empty name")
	ErrTooLong        = errors.New("text too long")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidPeriod  = errors.New("end date before start date")
	ErrUnknownProject = errors.New("unknown project")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a Date normalized to midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a Date in ISO form (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s InstallmentStatus) Validate() error {
	switch s {
	case InstallmentUnpaid, InstallmentPaid:
		return nil
	}
	return ErrInvalidStatus
}

func (s ProjectStatus) Validate() error {
	switch s {
	case ProjectOngoing, ProjectCompleted, ProjectCancelled:
		return nil
	}
	return ErrInvalidStatus
}

func (p Project) Validate() error {
	if len(strings.TrimSpace(p.Name)) == 0 {
		return ErrEmptyName
	}
	if len(p.Name) > 200 {
		return fmt.Errorf("%w: name exceeds 200 characters", ErrTooLong)
	}
	if err := p.StartDate.Validate(); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if err := p.EndDate.Validate(); err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if p.EndDate.Before(p.StartDate.Time) {
		return ErrInvalidPeriod
	}
	if p.StudyAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if err := p.Status.Validate(); err != nil {
		return err
	}
	return nil
}

func (e Expense) Validate() error {
	if e.ProjectID <= 0 {
		return ErrUnknownProject
	}
	if len(strings.TrimSpace(e.Label)) == 0 {
		return ErrEmptyLabel
	}
	if len(e.Label) > 200 {
		return fmt.Errorf("%w: label exceeds 200 characters", ErrTooLong)
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.SpentOn.Validate(); err != nil {
		return err
	}
	return nil
}
