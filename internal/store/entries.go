package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hay-kot/criterio"
	"github.com/shopspring/decimal"

	"github.com/sadopc/sheetr/internal/timesheet"
)

const entryColumns = `
	e.id, e.user_id, e.work_date, e.project_id, COALESCE(p.name, ''), e.task_id, COALESCE(t.name, ''),
	e.hours, e.description, e.is_billable, e.billing_rate, e.billing_amount, e.activity_type,
	e.status, e.submitted_at, e.approved_at, e.approved_by, e.rejection_reason, e.is_auto_approved,
	e.created_at, e.updated_at
	FROM timesheet_entries e
	LEFT JOIN projects p ON p.id = e.project_id
	LEFT JOIN tasks t ON t.id = e.task_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (timesheet.Entry, error) {
	var (
		e                      timesheet.Entry
		workDate, status       string
		createdAt, updatedAt   string
		submittedAt, approved  sql.NullString
		projectID, taskID      sql.NullInt64
		billable, autoApproved int
		rate, amount           decimal.NullDecimal
	)
	err := r.Scan(
		&e.ID, &e.UserID, &workDate, &projectID, &e.ProjectName, &taskID, &e.TaskName,
		&e.Hours, &e.Description, &billable, &rate, &amount, &e.ActivityType,
		&status, &submittedAt, &approved, &e.ApprovedBy, &e.RejectionReason, &autoApproved,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return e, err
	}

	e.WorkDate, err = timesheet.ParseDate(workDate)
	if err != nil {
		return e, err
	}
	e.Status, err = timesheet.ParseStatus(status)
	if err != nil {
		return e, err
	}
	if projectID.Valid {
		e.ProjectID = &projectID.Int64
	}
	if taskID.Valid {
		e.TaskID = &taskID.Int64
	}
	if rate.Valid {
		e.BillingRate = &rate.Decimal
	}
	if amount.Valid {
		e.BillingAmount = &amount.Decimal
	}
	e.Billable = billable == 1
	e.AutoApproved = autoApproved == 1
	e.SubmittedAt = parseNullTime(submittedAt)
	e.ApprovedAt = parseNullTime(approved)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}

func (s *Store) getEntry(ctx context.Context, q querier, id string) (timesheet.Entry, error) {
	e, err := scanEntry(q.QueryRowContext(ctx, `SELECT `+entryColumns+` WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("get entry %s: %w", id, timesheet.ErrNotFound)
	}
	if err != nil {
		return e, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*timesheet.Entry, error) {
	e, err := s.getEntry(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) queryEntries(ctx context.Context, where string, args ...any) ([]timesheet.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []timesheet.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListEntries returns userID's entries with from <= work_date <= to.
func (s *Store) ListEntries(ctx context.Context, userID string, from, to timesheet.Date) ([]timesheet.Entry, error) {
	entries, err := s.queryEntries(ctx,
		`e.user_id = ? AND e.work_date BETWEEN ? AND ? ORDER BY e.work_date, e.created_at, e.id`,
		userID, from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// ListPending returns every SUBMITTED entry, oldest work date first.
func (s *Store) ListPending(ctx context.Context) ([]timesheet.Entry, error) {
	entries, err := s.queryEntries(ctx,
		`e.status = 'SUBMITTED' ORDER BY e.user_id, e.work_date, e.created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return entries, nil
}

// checkDraft re-runs the field rules and the tenant's future-date policy.
// Field failures are validation errors; a future date is a policy violation
// because the caller may have validated against a stale policy.
func (s *Store) checkDraft(ctx context.Context, q querier, d timesheet.Draft) error {
	var errs criterio.FieldErrorsBuilder
	if d.WorkDate.IsZero() {
		errs = errs.Append("work_date", errors.New("work date is required"))
	}
	if err := timesheet.ValidateHours(d.Hours, s.rules.MaxEntryHours); err != nil {
		errs = errs.Append("hours_worked", err)
	}
	if strings.TrimSpace(d.Description) == "" {
		errs = errs.Append("description", errors.New("is required"))
	}
	if d.TaskID != nil && d.ProjectID == nil {
		errs = errs.Append("task_id", errors.New("a task requires a project"))
	}
	if err := timesheet.NewValidationError(errs.ToError()); err != nil {
		return err
	}

	allow, err := s.futureDatePolicy(ctx, q)
	if err != nil {
		return err
	}
	if today := timesheet.Today(s.now()); !allow && d.WorkDate.After(today) {
		return &timesheet.PolicyViolationError{
			Reason: fmt.Sprintf("work date %s is in the future and future timesheets are not allowed", d.WorkDate),
		}
	}
	return nil
}

// billing resolves the project reference and computes rate and amount for
// billable entries on a rated project.
func (s *Store) billing(ctx context.Context, q querier, d timesheet.Draft) (rate, amount *decimal.Decimal, err error) {
	if d.ProjectID == nil {
		return nil, nil, nil
	}

	var (
		archived int
		r        decimal.NullDecimal
	)
	err = q.QueryRowContext(ctx,
		`SELECT archived, billing_rate FROM projects WHERE id = ?`, *d.ProjectID,
	).Scan(&archived, &r)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, timesheet.NewValidationError(
			criterio.NewFieldErrors("project_id", fmt.Errorf("project %d not found", *d.ProjectID)))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get project %d: %w", *d.ProjectID, err)
	}
	if archived == 1 {
		return nil, nil, timesheet.NewValidationError(
			criterio.NewFieldErrors("project_id", fmt.Errorf("project %d is archived", *d.ProjectID)))
	}

	if d.TaskID != nil {
		var taskProject int64
		err := q.QueryRowContext(ctx, `SELECT project_id FROM tasks WHERE id = ?`, *d.TaskID).Scan(&taskProject)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && taskProject != *d.ProjectID) {
			return nil, nil, timesheet.NewValidationError(
				criterio.NewFieldErrors("task_id", fmt.Errorf("task %d does not belong to project %d", *d.TaskID, *d.ProjectID)))
		}
		if err != nil {
			return nil, nil, fmt.Errorf("get task %d: %w", *d.TaskID, err)
		}
	}

	if !d.Billable || !r.Valid {
		return nil, nil, nil
	}
	a := d.Hours.Mul(r.Decimal).Round(2)
	return &r.Decimal, &a, nil
}

// CreateEntry persists a new DRAFT entry for userID.
func (s *Store) CreateEntry(ctx context.Context, userID string, d timesheet.Draft) (*timesheet.Entry, error) {
	if err := s.checkDraft(ctx, s.db, d); err != nil {
		return nil, err
	}
	rate, amount, err := s.billing(ctx, s.db, d)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := s.stamp()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO timesheet_entries
			(id, user_id, work_date, project_id, task_id, hours, description, is_billable,
			 billing_rate, billing_amount, activity_type, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'DRAFT', ?, ?)`,
		id, userID, d.WorkDate.String(), d.ProjectID, d.TaskID, d.Hours,
		strings.TrimSpace(d.Description), boolInt(d.Billable),
		rate, amount, strings.TrimSpace(d.ActivityType), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return s.GetEntry(ctx, id)
}

// UpdateEntry replaces the editable fields of a DRAFT or REJECTED entry.
// A REJECTED entry returns to DRAFT.
func (s *Store) UpdateEntry(ctx context.Context, id string, d timesheet.Draft) (*timesheet.Entry, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := s.getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if !timesheet.CanEdit(e) {
			return &timesheet.StateViolationError{EntryID: id, From: e.Status, Event: timesheet.EventEdit}
		}
		if err := s.checkDraft(ctx, tx, d); err != nil {
			return err
		}
		rate, amount, err := s.billing(ctx, tx, d)
		if err != nil {
			return err
		}
		if err := timesheet.ApplyEdit(&e, d, s.now()); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE timesheet_entries SET
				work_date = ?, project_id = ?, task_id = ?, hours = ?, description = ?,
				is_billable = ?, billing_rate = ?, billing_amount = ?, activity_type = ?,
				status = ?, submitted_at = NULL, updated_at = ?
			WHERE id = ? AND status IN ('DRAFT', 'REJECTED')`,
			e.WorkDate.String(), e.ProjectID, e.TaskID, e.Hours, strings.TrimSpace(e.Description),
			boolInt(e.Billable), rate, amount, strings.TrimSpace(e.ActivityType),
			string(e.Status), s.stamp(), id,
		)
		if err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		return expectOne(res, id, e.Status, timesheet.EventEdit)
	})
	if err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, id)
}

// DeleteEntry removes a DRAFT or REJECTED entry.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := s.getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := timesheet.CheckDelete(e); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM timesheet_entries WHERE id = ? AND status IN ('DRAFT', 'REJECTED')`, id)
		if err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		return expectOne(res, id, e.Status, timesheet.EventDelete)
	})
}

// BulkSubmit moves the named DRAFT entries of userID, all dated inside
// [start, end], to SUBMITTED. Either every entry moves or none does.
func (s *Store) BulkSubmit(ctx context.Context, userID string, ids []string, start, end timesheet.Date) (int, error) {
	if len(ids) == 0 {
		return 0, timesheet.NewValidationError(criterio.NewFieldErrors("entry_ids", errors.New("no entries to submit")))
	}

	var submitted int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var errs criterio.FieldErrorsBuilder
		entries := make([]timesheet.Entry, 0, len(ids))
		for i, id := range ids {
			e, err := s.getEntry(ctx, tx, id)
			if err != nil {
				return err
			}
			if e.UserID != userID {
				return fmt.Errorf("get entry %s: %w", id, timesheet.ErrNotFound)
			}
			if !timesheet.CanSubmit(e) {
				return &timesheet.StateViolationError{EntryID: id, From: e.Status, Event: timesheet.EventSubmit}
			}

			field := fmt.Sprintf("entries[%d]", i)
			if e.WorkDate.Before(start) || e.WorkDate.After(end) {
				errs = errs.Append(field+".work_date", fmt.Errorf("%s is outside %s .. %s", e.WorkDate, start, end))
			}
			if n := timesheet.DescriptionLength(e.Description); n < s.rules.MinDescriptionLength {
				errs = errs.Append(field+".description",
					fmt.Errorf("invalid description on %s (%d characters, minimum %d)", e.WorkDate, n, s.rules.MinDescriptionLength))
			}
			if err := timesheet.ValidateHours(e.Hours, s.rules.MaxEntryHours); err != nil {
				errs = errs.Append(field+".hours_worked", err)
			}
			entries = append(entries, e)
		}
		if err := timesheet.NewValidationError(errs.ToError()); err != nil {
			return err
		}

		now := s.stamp()
		for _, e := range entries {
			res, err := tx.ExecContext(ctx, `
				UPDATE timesheet_entries SET status = 'SUBMITTED', submitted_at = ?, updated_at = ?
				WHERE id = ? AND status = 'DRAFT'`,
				now, now, e.ID,
			)
			if err != nil {
				return fmt.Errorf("submit entry %s: %w", e.ID, err)
			}
			if err := expectOne(res, e.ID, e.Status, timesheet.EventSubmit); err != nil {
				return err
			}
			submitted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return submitted, nil
}

// AutoApprove approves every SUBMITTED entry of a root-level user. It is
// idempotent: with nothing pending it returns 0.
func (s *Store) AutoApprove(ctx context.Context, userID string) (int, error) {
	var approved int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		eligible, err := s.isRootLevel(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !eligible {
			return &timesheet.PolicyViolationError{Reason: fmt.Sprintf("user %q is not root-level", userID)}
		}

		now := s.stamp()
		res, err := tx.ExecContext(ctx, `
			UPDATE timesheet_entries SET
				status = 'APPROVED', approved_at = ?, approved_by = ?, is_auto_approved = 1,
				rejection_reason = '', updated_at = ?
			WHERE user_id = ? AND status = 'SUBMITTED'`,
			now, userID, now, userID,
		)
		if err != nil {
			return fmt.Errorf("auto approve: %w", err)
		}
		n, err := res.RowsAffected()
		approved = int(n)
		return err
	})
	if err != nil {
		return 0, err
	}
	return approved, nil
}

// Approve records a manual approval of a SUBMITTED entry.
func (s *Store) Approve(ctx context.Context, id, approver string) (*timesheet.Entry, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := s.getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := timesheet.Approve(&e, approver, s.now(), false); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE timesheet_entries SET
				status = 'APPROVED', approved_at = ?, approved_by = ?, is_auto_approved = 0,
				rejection_reason = '', updated_at = ?
			WHERE id = ? AND status = 'SUBMITTED'`,
			formatTime(*e.ApprovedAt), approver, s.stamp(), id,
		)
		if err != nil {
			return fmt.Errorf("approve entry: %w", err)
		}
		return expectOne(res, id, timesheet.StatusSubmitted, timesheet.EventApprove)
	})
	if err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, id)
}

// Reject sends a SUBMITTED entry back to its owner with a reason.
func (s *Store) Reject(ctx context.Context, id, reason string) (*timesheet.Entry, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := s.getEntry(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := timesheet.Reject(&e, reason, s.now()); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE timesheet_entries SET status = 'REJECTED', rejection_reason = ?, updated_at = ?
			WHERE id = ? AND status = 'SUBMITTED'`,
			e.RejectionReason, s.stamp(), id,
		)
		if err != nil {
			return fmt.Errorf("reject entry: %w", err)
		}
		return expectOne(res, id, timesheet.StatusSubmitted, timesheet.EventReject)
	})
	if err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, id)
}

// WeeklyTotals returns the hours per Monday-based week for userID between
// from and to, oldest first.
func (s *Store) WeeklyTotals(ctx context.Context, userID string, from, to timesheet.Date) ([]WeekTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(work_date, 'weekday 0', '-6 days') AS week,
		       COALESCE(SUM(CAST(hours AS REAL)), 0), COUNT(*)
		FROM timesheet_entries
		WHERE user_id = ? AND work_date BETWEEN ? AND ?
		GROUP BY week
		ORDER BY week`,
		userID, from.String(), to.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("weekly totals: %w", err)
	}
	defer rows.Close()

	var totals []WeekTotal
	for rows.Next() {
		var (
			wt    WeekTotal
			hours float64
		)
		if err := rows.Scan(&wt.WeekStart, &hours, &wt.Entries); err != nil {
			return nil, err
		}
		wt.Hours = decimal.NewFromFloat(hours).Round(2)
		totals = append(totals, wt)
	}
	return totals, rows.Err()
}

// expectOne turns a guarded UPDATE or DELETE that matched nothing into a
// state violation: the row changed state underneath us.
func expectOne(res sql.Result, id string, from timesheet.Status, ev timesheet.Event) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return &timesheet.StateViolationError{EntryID: id, From: from, Event: ev}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
