package services

import (
	"context"
	"errors"
	"testing"

	"credipart/internal/core"
	"credipart/internal/storage"
)

// fakeProjectStore is an in-memory ProjectStore for service tests.
type fakeProjectStore struct {
	projects map[int64]core.Project
	expenses map[int64]core.Expense
	nextID   int64
	order    []int64
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{
		projects: make(map[int64]core.Project),
		expenses: make(map[int64]core.Expense),
	}
}

func (f *fakeProjectStore) CreateProject(_ context.Context, p core.Project) (core.Project, error) {
	f.nextID++
	p.ID = f.nextID
	f.projects[p.ID] = p
	f.order = append(f.order, p.ID)
	return p, nil
}

func (f *fakeProjectStore) GetProject(_ context.Context, id int64) (core.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return core.Project{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeProjectStore) ListProjects(_ context.Context) ([]storage.ProjectWithSpend, error) {
	out := make([]storage.ProjectWithSpend, 0, len(f.order))
	for _, id := range f.order {
		p, ok := f.projects[id]
		if !ok {
			continue
		}
		var total int64
		for _, e := range f.expenses {
			if e.ProjectID == id {
				total += e.Amount.Cents
			}
		}
		out = append(out, storage.ProjectWithSpend{Project: p, RealExpense: core.Money{Cents: total}})
	}
	return out, nil
}

func (f *fakeProjectStore) UpdateProject(_ context.Context, p core.Project) error {
	if _, ok := f.projects[p.ID]; !ok {
		return storage.ErrNotFound
	}
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjectStore) DeleteProject(_ context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.projects, id)
	for eid, e := range f.expenses {
		if e.ProjectID == id {
			delete(f.expenses, eid)
		}
	}
	return nil
}

func (f *fakeProjectStore) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	f.nextID++
	e.ID = f.nextID
	f.expenses[e.ID] = e
	return e, nil
}

func (f *fakeProjectStore) ListExpensesByProject(_ context.Context, projectID int64) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range f.expenses {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeProjectStore) UpdateExpense(_ context.Context, e core.Expense) error {
	if _, ok := f.expenses[e.ID]; !ok {
		return storage.ErrNotFound
	}
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeProjectStore) DeleteExpense(_ context.Context, id int64) error {
	if _, ok := f.expenses[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate() { c.calls++ }

func validProject() core.Project {
	return core.Project{
		Name:        "Workshop renovation",
		StartDate:   core.NewDate(2024, 6, 1),
		EndDate:     core.NewDate(2024, 6, 29),
		StudyAmount: core.Money{Cents: 500000},
		Status:      core.ProjectOngoing,
	}
}

func TestCreateProjectDefaultsStatus(t *testing.T) {
	svc := NewProjectService(newFakeProjectStore(), nil)

	p := validProject()
	p.Status = ""
	saved, err := svc.CreateProject(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if saved.Status != core.ProjectOngoing {
		t.Errorf("status = %q, want ongoing", saved.Status)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	svc := NewProjectService(newFakeProjectStore(), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*core.Project)
	}{
		{"empty name", func(p *core.Project) { p.Name = "  " }},
		{"end before start", func(p *core.Project) { p.EndDate = core.NewDate(2024, 5, 1) }},
		{"negative budget", func(p *core.Project) { p.StudyAmount.Cents = -1 }},
		{"bad status", func(p *core.Project) { p.Status = "paused" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProject()
			tt.mutate(&p)
			if _, err := svc.CreateProject(ctx, p); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestProjectMutationsInvalidateTimeline(t *testing.T) {
	store := newFakeProjectStore()
	inv := &countingInvalidator{}
	svc := NewProjectService(store, inv)
	ctx := context.Background()

	saved, err := svc.CreateProject(ctx, validProject())
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	saved.EndDate = core.NewDate(2024, 7, 15)
	if err := svc.UpdateProject(ctx, saved); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if err := svc.DeleteProject(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	if inv.calls != 3 {
		t.Errorf("invalidations = %d, want 3", inv.calls)
	}
}

func TestExpenseMutationsInvalidateTimeline(t *testing.T) {
	store := newFakeProjectStore()
	inv := &countingInvalidator{}
	svc := NewProjectService(store, inv)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, validProject())
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	before := inv.calls

	expense, err := svc.AddExpense(ctx, core.Expense{
		ProjectID: project.ID,
		Label:     "materials",
		Amount:    core.Money{Cents: 2550},
		SpentOn:   core.NewDate(2024, 6, 5),
	})
	if err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}
	expense.Amount.Cents = 3000
	if err := svc.UpdateExpense(ctx, expense); err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}
	if err := svc.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}

	if got := inv.calls - before; got != 3 {
		t.Errorf("invalidations from expense mutations = %d, want 3", got)
	}
}

// Timeline rows carry the expense total, so booking an expense must purge
// the cached views even though the project record itself is untouched.
func TestAddExpenseRefreshesCachedTimeline(t *testing.T) {
	store := newFakeProjectStore()
	timelines := NewTimelineService(store)
	svc := NewProjectService(store, timelines)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, validProject())
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	view, err := timelines.BuildView(ctx, yearView(2024))
	if err != nil {
		t.Fatalf("BuildView() error = %v", err)
	}
	if view.Rows[0].RealExpense.Cents != 0 {
		t.Fatalf("real expense before booking = %d, want 0", view.Rows[0].RealExpense.Cents)
	}

	if _, err := svc.AddExpense(ctx, core.Expense{
		ProjectID: project.ID,
		Label:     "materials",
		Amount:    core.Money{Cents: 5000},
		SpentOn:   core.NewDate(2024, 6, 5),
	}); err != nil {
		t.Fatalf("AddExpense() error = %v", err)
	}

	view, err = timelines.BuildView(ctx, yearView(2024))
	if err != nil {
		t.Fatalf("BuildView() error = %v", err)
	}
	if view.Rows[0].RealExpense.Cents != 5000 {
		t.Errorf("real expense after booking = %d, want 5000", view.Rows[0].RealExpense.Cents)
	}
}

func TestAddExpenseRequiresProject(t *testing.T) {
	store := newFakeProjectStore()
	svc := NewProjectService(store, nil)
	ctx := context.Background()

	expense := core.Expense{
		ProjectID: 99,
		Label:     "materials",
		Amount:    core.Money{Cents: 2550},
		SpentOn:   core.NewDate(2024, 6, 5),
	}
	if _, err := svc.AddExpense(ctx, expense); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	project, _ := svc.CreateProject(ctx, validProject())
	expense.ProjectID = project.ID
	if _, err := svc.AddExpense(ctx, expense); err != nil {
		t.Errorf("AddExpense() error = %v", err)
	}
}

func TestGetProjectComputesRealExpense(t *testing.T) {
	store := newFakeProjectStore()
	svc := NewProjectService(store, nil)
	ctx := context.Background()

	project, _ := svc.CreateProject(ctx, validProject())
	for _, cents := range []int64{2550, 1000} {
		if _, err := svc.AddExpense(ctx, core.Expense{
			ProjectID: project.ID,
			Label:     "materials",
			Amount:    core.Money{Cents: cents},
			SpentOn:   core.NewDate(2024, 6, 5),
		}); err != nil {
			t.Fatalf("AddExpense() error = %v", err)
		}
	}

	detail, err := svc.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if detail.RealExpense.Cents != 3550 {
		t.Errorf("real expense = %d, want 3550", detail.RealExpense.Cents)
	}
	if len(detail.Expenses) != 2 {
		t.Errorf("expenses = %d, want 2", len(detail.Expenses))
	}
}
