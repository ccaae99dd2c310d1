package services

import (
	"context"
	"fmt"

	"credipart/internal/core"
	"credipart/internal/storage"
)

// ProjectStore is the slice of the repository the project service uses.
type ProjectStore interface {
	CreateProject(ctx context.Context, p core.Project) (core.Project, error)
	GetProject(ctx context.Context, id int64) (core.Project, error)
	ListProjects(ctx context.Context) ([]storage.ProjectWithSpend, error)
	UpdateProject(ctx context.Context, p core.Project) error
	DeleteProject(ctx context.Context, id int64) error
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListExpensesByProject(ctx context.Context, projectID int64) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
}

// Invalidator is notified whenever projects or their expenses change, so
// cached timeline views can be discarded. Timeline rows embed both the
// date range and the expense total.
type Invalidator interface {
	Invalidate()
}

// ProjectService owns projects and the expenses booked against them.
type ProjectService struct {
	store       ProjectStore
	invalidator Invalidator
}

func NewProjectService(store ProjectStore, invalidator Invalidator) *ProjectService {
	return &ProjectService{store: store, invalidator: invalidator}
}

// ProjectDetail is a project with its booked expenses and their total.
type ProjectDetail struct {
	Project     core.Project
	RealExpense core.Money
	Expenses    []core.Expense
}

func (s *ProjectService) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if p.Status == "" {
		p.Status = core.ProjectOngoing
	}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	saved, err := s.store.CreateProject(ctx, p)
	if err != nil {
		return core.Project{}, err
	}
	s.invalidate()
	return saved, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id int64) (ProjectDetail, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return ProjectDetail{}, err
	}
	expenses, err := s.store.ListExpensesByProject(ctx, id)
	if err != nil {
		return ProjectDetail{}, fmt.Errorf("load expenses: %w", err)
	}
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}
	return ProjectDetail{
		Project:     project,
		RealExpense: core.Money{Cents: total},
		Expenses:    expenses,
	}, nil
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]storage.ProjectWithSpend, error) {
	return s.store.ListProjects(ctx)
}

func (s *ProjectService) UpdateProject(ctx context.Context, p core.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, id int64) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// AddExpense books a real cost against an existing project.
func (s *ProjectService) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	// Surface a clean error instead of a foreign key violation.
	if _, err := s.store.GetProject(ctx, e.ProjectID); err != nil {
		return core.Expense{}, err
	}
	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}
	// Cached timeline rows embed the expense totals.
	s.invalidate()
	return saved, nil
}

// ListExpenses returns a project's expenses plus their running total.
func (s *ProjectService) ListExpenses(ctx context.Context, projectID int64) ([]core.Expense, core.Money, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, core.Money{}, err
	}
	expenses, err := s.store.ListExpensesByProject(ctx, projectID)
	if err != nil {
		return nil, core.Money{}, err
	}
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}
	return expenses, core.Money{Cents: total}, nil
}

func (s *ProjectService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *ProjectService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *ProjectService) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

var _ ProjectStore = (*storage.Repository)(nil)
