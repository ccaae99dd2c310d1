// Package storage persists credits, installments, projects and expenses in
// SQLite. The repository hands out plain core records; all derivation
// (schedules, layouts) happens upstream of it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"credipart/internal/core"
	applog "credipart/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// Foreign keys enforce the credit -> installment and project -> expense
	// cascades; the pragma must apply to every pooled connection.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- participants ----

func (r *Repository) CreateParticipant(ctx context.Context, username string) (core.Participant, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO participants (username) VALUES (?)`, username)
	if err != nil {
		return core.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Participant{}, fmt.Errorf("participant id: %w", err)
	}
	return core.Participant{ID: id, Username: username}, nil
}

func (r *Repository) ListParticipants(ctx context.Context) ([]core.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username FROM participants ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []core.Participant
	for rows.Next() {
		var p core.Participant
		if err := rows.Scan(&p.ID, &p.Username); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---- credits and installments ----

// CreateCredit stores a credit and its full installment schedule in one
// transaction: either the credit exists with every installment or nothing
// is written.
func (r *Repository) CreateCredit(ctx context.Context, credit core.Credit, installments []core.Installment) (core.Credit, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Credit{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	credit.CreatedAt = now

	res, err := tx.ExecContext(ctx, `
		INSERT INTO credits (amount_cents, total_amount_cents, monthly_payment_cents,
			duration_months, interest_rate, fees_cents, start_year, start_month, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		credit.Amount.Cents, credit.TotalAmount.Cents, credit.MonthlyPayment.Cents,
		credit.DurationMonths, credit.InterestRate, credit.Fees.Cents,
		credit.StartMonth.Year, int(credit.StartMonth.Month), now.Format(time.RFC3339))
	if err != nil {
		return core.Credit{}, fmt.Errorf("insert credit: %w", err)
	}
	credit.ID, err = res.LastInsertId()
	if err != nil {
		return core.Credit{}, fmt.Errorf("credit id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO installments (credit_id, participant_id, amount_cents,
			due_year, due_month, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return core.Credit{}, fmt.Errorf("prepare installment insert: %w", err)
	}
	defer stmt.Close()

	ts := now.Format(time.RFC3339)
	for _, inst := range installments {
		if _, err := stmt.ExecContext(ctx, credit.ID, inst.ParticipantID, inst.Amount.Cents,
			inst.DueMonth.Year, int(inst.DueMonth.Month), string(inst.Status), ts, ts); err != nil {
			return core.Credit{}, fmt.Errorf("insert installment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Credit{}, fmt.Errorf("commit credit: %w", err)
	}

	slog.InfoContext(ctx, "Credit saved",
		applog.FieldCreditID, credit.ID,
		applog.FieldAmountCents, credit.Amount.Cents,
		"installments", len(installments))
	return credit, nil
}

func (r *Repository) GetCredit(ctx context.Context, id int64) (core.Credit, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, amount_cents, total_amount_cents, monthly_payment_cents,
			duration_months, interest_rate, fees_cents, start_year, start_month, created_at
		FROM credits WHERE id = ?`, id)
	c, err := scanCredit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Credit{}, fmt.Errorf("credit %d: %w", id, ErrNotFound)
	}
	return c, err
}

// ListCreditsByParticipant returns every credit the participant has at least
// one installment in, newest first.
func (r *Repository) ListCreditsByParticipant(ctx context.Context, participantID int64) ([]core.Credit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT c.id, c.amount_cents, c.total_amount_cents, c.monthly_payment_cents,
			c.duration_months, c.interest_rate, c.fees_cents, c.start_year, c.start_month, c.created_at
		FROM credits c
		JOIN installments i ON i.credit_id = c.id
		WHERE i.participant_id = ?
		ORDER BY c.id DESC`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	defer rows.Close()

	var out []core.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteCredit(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete credit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("credit %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListInstallments returns a credit's installments ordered by due month,
// then participant.
func (r *Repository) ListInstallments(ctx context.Context, creditID int64) ([]core.Installment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, credit_id, participant_id, amount_cents, due_year, due_month, status, created_at, updated_at
		FROM installments WHERE credit_id = ?
		ORDER BY due_year, due_month, participant_id`, creditID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()
	return collectInstallments(rows)
}

func (r *Repository) GetInstallment(ctx context.Context, id int64) (core.Installment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, credit_id, participant_id, amount_cents, due_year, due_month, status, created_at, updated_at
		FROM installments WHERE id = ?`, id)
	inst, err := scanInstallment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Installment{}, fmt.Errorf("installment %d: %w", id, ErrNotFound)
	}
	return inst, err
}

// UpdateInstallmentStatus persists a status transition with a single-row
// update keyed by installment identity.
func (r *Repository) UpdateInstallmentStatus(ctx context.Context, id int64, status core.InstallmentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE installments SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update installment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("installment %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListDueInstallments returns unpaid installments due in or before the
// given month, optionally restricted to one participant (0 means all).
func (r *Repository) ListDueInstallments(ctx context.Context, upTo core.YearMonth, participantID int64) ([]core.Installment, error) {
	query := `
		SELECT id, credit_id, participant_id, amount_cents, due_year, due_month, status, created_at, updated_at
		FROM installments
		WHERE status = 'unpaid' AND (due_year * 12 + due_month) <= ?`
	args := []any{upTo.Year*12 + int(upTo.Month)}
	if participantID != 0 {
		query += ` AND participant_id = ?`
		args = append(args, participantID)
	}
	query += ` ORDER BY due_year, due_month, participant_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list due installments: %w", err)
	}
	defer rows.Close()
	return collectInstallments(rows)
}

// ---- projects ----

// ProjectWithSpend decorates a project with the sum of its booked expenses.
type ProjectWithSpend struct {
	core.Project
	RealExpense core.Money
}

func (r *Repository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (name, start_date, end_date, study_amount_cents, status, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.StartDate.String(), p.EndDate.String(), p.StudyAmount.Cents,
		string(p.Status), p.Description, now.Format(time.RFC3339))
	if err != nil {
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return core.Project{}, fmt.Errorf("project id: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProject(ctx context.Context, id int64) (core.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, study_amount_cents, status, description, created_at
		FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return p, err
}

// ListProjects returns all projects with their real expense totals, oldest
// first so timeline colors stay stable as projects are added.
func (r *Repository) ListProjects(ctx context.Context) ([]ProjectWithSpend, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.start_date, p.end_date, p.study_amount_cents, p.status, p.description, p.created_at,
			COALESCE(SUM(e.amount_cents), 0)
		FROM projects p
		LEFT JOIN expenses e ON e.project_id = p.id
		GROUP BY p.id
		ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectWithSpend
	for rows.Next() {
		var (
			p          core.Project
			start, end string
			created    string
			spend      int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &start, &end, &p.StudyAmount.Cents,
			&p.Status, &p.Description, &created, &spend); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if p.StartDate, err = core.ParseDate(start); err != nil {
			return nil, fmt.Errorf("project %d start date: %w", p.ID, err)
		}
		if p.EndDate, err = core.ParseDate(end); err != nil {
			return nil, fmt.Errorf("project %d end date: %w", p.ID, err)
		}
		p.CreatedAt = parseTimestamp(created)
		out = append(out, ProjectWithSpend{Project: p, RealExpense: core.Money{Cents: spend}})
	}
	return out, rows.Err()
}

func (r *Repository) UpdateProject(ctx context.Context, p core.Project) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, start_date = ?, end_date = ?, study_amount_cents = ?,
			status = ?, description = ?
		WHERE id = ?`,
		p.Name, p.StartDate.String(), p.EndDate.String(), p.StudyAmount.Cents,
		string(p.Status), p.Description, p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %d: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteProject(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return nil
}

// ---- expenses ----

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC()
	e.CreatedAt = now
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (project_id, label, amount_cents, spent_on, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ProjectID, e.Label, e.Amount.Cents, e.SpentOn.String(), now.Format(time.RFC3339))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	return e, nil
}

func (r *Repository) ListExpensesByProject(ctx context.Context, projectID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, label, amount_cents, spent_on, created_at
		FROM expenses WHERE project_id = ? ORDER BY spent_on, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e       core.Expense
			spentOn string
			created string
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Label, &e.Amount.Cents, &spentOn, &created); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.SpentOn, err = core.ParseDate(spentOn); err != nil {
			return nil, fmt.Errorf("expense %d date: %w", e.ID, err)
		}
		e.CreatedAt = parseTimestamp(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET label = ?, amount_cents = ?, spent_on = ? WHERE id = ?`,
		e.Label, e.Amount.Cents, e.SpentOn.String(), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %d: %w", id, ErrNotFound)
	}
	return nil
}

// ---- scan helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredit(row rowScanner) (core.Credit, error) {
	var (
		c       core.Credit
		year    int
		month   int
		created string
	)
	err := row.Scan(&c.ID, &c.Amount.Cents, &c.TotalAmount.Cents, &c.MonthlyPayment.Cents,
		&c.DurationMonths, &c.InterestRate, &c.Fees.Cents, &year, &month, &created)
	if err != nil {
		return core.Credit{}, err
	}
	c.StartMonth = core.YearMonth{Year: year, Month: time.Month(month)}
	c.CreatedAt = parseTimestamp(created)
	return c, nil
}

func scanProject(row rowScanner) (core.Project, error) {
	var (
		p          core.Project
		start, end string
		created    string
	)
	err := row.Scan(&p.ID, &p.Name, &start, &end, &p.StudyAmount.Cents,
		&p.Status, &p.Description, &created)
	if err != nil {
		return core.Project{}, err
	}
	if p.StartDate, err = core.ParseDate(start); err != nil {
		return core.Project{}, fmt.Errorf("project %d start date: %w", p.ID, err)
	}
	if p.EndDate, err = core.ParseDate(end); err != nil {
		return core.Project{}, fmt.Errorf("project %d end date: %w", p.ID, err)
	}
	p.CreatedAt = parseTimestamp(created)
	return p, nil
}

func scanInstallment(row rowScanner) (core.Installment, error) {
	var (
		inst             core.Installment
		year, month      int
		created, updated string
		status           string
	)
	err := row.Scan(&inst.ID, &inst.CreditID, &inst.ParticipantID, &inst.Amount.Cents,
		&year, &month, &status, &created, &updated)
	if err != nil {
		return core.Installment{}, err
	}
	inst.DueMonth = core.YearMonth{Year: year, Month: time.Month(month)}
	inst.Status = core.InstallmentStatus(status)
	inst.CreatedAt = parseTimestamp(created)
	inst.UpdatedAt = parseTimestamp(updated)
	return inst, nil
}

func collectInstallments(rows *sql.Rows) ([]core.Installment, error) {
	var out []core.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
