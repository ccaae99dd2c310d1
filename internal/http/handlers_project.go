package http

import (
	"errors"
	"net/http"
	"time"

	"credipart/internal/core"
)

type projectRequest struct {
	Name        string `json:"name"`
	StartDate   string `json:"start_date"` // "2024-06-01"
	EndDate     string `json:"end_date"`
	StudyAmount string `json:"study_amount"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`
}

type projectResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	StudyAmount string `json:"study_amount"`
	RealExpense string `json:"real_expense"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type expenseRequest struct {
	Label   string `json:"label"`
	Amount  string `json:"amount"`
	SpentOn string `json:"spent_on"` // "2024-06-05"
}

type expenseResponse struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Label     string `json:"label"`
	Amount    string `json:"amount"`
	SpentOn   string `json:"spent_on"`
}

type projectDetailResponse struct {
	projectResponse
	Expenses []expenseResponse `json:"expenses"`
}

func toProjectResponse(p core.Project, realExpense core.Money) projectResponse {
	resp := projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		StartDate:   p.StartDate.String(),
		EndDate:     p.EndDate.String(),
		StudyAmount: p.StudyAmount.String(),
		RealExpense: realExpense.String(),
		Status:      string(p.Status),
		Description: p.Description,
	}
	if !p.CreatedAt.IsZero() {
		resp.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		Label:     e.Label,
		Amount:    e.Amount.String(),
		SpentOn:   e.SpentOn.String(),
	}
}

// parseProject validates and converts the request payload. ID 0 means new.
func parseProject(req projectRequest, id int64) (core.Project, string) {
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.Project{}, "invalid start_date, want YYYY-MM-DD"
	}
	end, err := core.ParseDate(req.EndDate)
	if err != nil {
		return core.Project{}, "invalid end_date, want YYYY-MM-DD"
	}
	var budget int64
	if req.StudyAmount != "" {
		budget, err = core.ParseCents(req.StudyAmount)
		if err != nil || budget < 0 {
			return core.Project{}, "invalid study_amount"
		}
	}
	return core.Project{
		ID:          id,
		Name:        req.Name,
		StartDate:   start,
		EndDate:     end,
		StudyAmount: core.Money{Cents: budget},
		Status:      core.ProjectStatus(req.Status),
		Description: req.Description,
	}, ""
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	project, msg := parseProject(req, 0)
	if msg != "" {
		writeError(w, r, http.StatusUnprocessableEntity, msg)
		return
	}
	saved, err := s.projects.CreateProject(r.Context(), project)
	if err != nil {
		writeValidationOrDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(saved, core.Money{}))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.ListProjects(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p.Project, p.RealExpense))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}
	detail, err := s.projects.GetProject(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	resp := projectDetailResponse{
		projectResponse: toProjectResponse(detail.Project, detail.RealExpense),
		Expenses:        make([]expenseResponse, 0, len(detail.Expenses)),
	}
	for _, e := range detail.Expenses {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	project, msg := parseProject(req, id)
	if msg != "" {
		writeError(w, r, http.StatusUnprocessableEntity, msg)
		return
	}
	if err := s.projects.UpdateProject(r.Context(), project); err != nil {
		writeValidationOrDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project, core.Money{}))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}
	if err := s.projects.DeleteProject(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	expense, msg := parseExpense(req, 0, projectID)
	if msg != "" {
		writeError(w, r, http.StatusUnprocessableEntity, msg)
		return
	}
	saved, err := s.projects.AddExpense(r.Context(), expense)
	if err != nil {
		writeValidationOrDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(saved))
}

// handleListExpenses returns a project's expenses with their total, for
// clients that want the ledger without the project record.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	projectID, err := queryInt64(r, "project_id")
	if err != nil || projectID <= 0 {
		writeError(w, r, http.StatusBadRequest, "project_id query parameter required")
		return
	}
	expenses, total, err := s.projects.ListExpenses(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := struct {
		Expenses []expenseResponse `json:"expenses"`
		Total    string            `json:"total"`
	}{
		Expenses: make([]expenseResponse, 0, len(expenses)),
		Total:    total.String(),
	}
	for _, e := range expenses {
		out.Expenses = append(out.Expenses, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid expense id")
		return
	}
	var req struct {
		expenseRequest
		ProjectID int64 `json:"project_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	expense, msg := parseExpense(req.expenseRequest, id, req.ProjectID)
	if msg != "" {
		writeError(w, r, http.StatusUnprocessableEntity, msg)
		return
	}
	if err := s.projects.UpdateExpense(r.Context(), expense); err != nil {
		writeValidationOrDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid expense id")
		return
	}
	if err := s.projects.DeleteExpense(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func parseExpense(req expenseRequest, id, projectID int64) (core.Expense, string) {
	cents, err := core.ParsePositiveCents(req.Amount)
	if err != nil {
		return core.Expense{}, "invalid amount"
	}
	spentOn, err := core.ParseDate(req.SpentOn)
	if err != nil {
		return core.Expense{}, "invalid spent_on, want YYYY-MM-DD"
	}
	return core.Expense{
		ID:        id,
		ProjectID: projectID,
		Label:     req.Label,
		Amount:    core.Money{Cents: cents},
		SpentOn:   spentOn,
	}, ""
}

// writeValidationOrDomainError distinguishes domain validation failures
// (422) from storage errors.
func writeValidationOrDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		writeDomainError(w, r, err)
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate, core.ErrInvalidAmount, core.ErrEmptyLabel,
		core.ErrEmptyName, core.ErrTooLong, core.ErrInvalidStatus,
		core.ErrInvalidPeriod, core.ErrUnknownProject,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
