package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/qamqor-studio/qamqor/internal/domain"
)

// ─── Task Repository ────────────────────────────────────────────────────────

// InsertTask creates a task row and its "created" history entry in one
// transaction.
func (d *DB) InsertTask(ctx context.Context, task domain.Task, rec domain.TaskHistoryRecord) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (id, description, contact, client_id, status, developer, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Description, task.Contact, task.ClientID,
		string(task.Status), nullStr(task.Developer),
		task.CreatedAt.Unix(), task.UpdatedAt.Unix(),
	)
	if err != nil {
		return err
	}

	if err := appendTaskHistory(ctx, tx, task.ID, rec); err != nil {
		return err
	}
	return tx.Commit()
}

// GetTask fetches a task by id.
func (d *DB) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(d.db.QueryRowContext(ctx,
		`SELECT id, description, contact, client_id, status, developer, created_at, updated_at
		 FROM tasks WHERE id = ?`, id))
}

// ListTasks returns tasks matching the filter, most recently created first.
func (d *DB) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	query := `SELECT id, description, contact, client_id, status, developer, created_at, updated_at FROM tasks`
	var where []string
	var args []any

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.ClientID != 0 {
		where = append(where, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.Developer != "" {
		where = append(where, "developer = ?")
		args = append(args, filter.Developer)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid DESC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTaskFields applies the non-nil fields of upd and appends rec, in one
// transaction. Returns the task as stored after the update.
func (d *DB) UpdateTaskFields(ctx context.Context, id string, upd domain.TaskUpdate, rec domain.TaskHistoryRecord) (domain.Task, error) {
	var set []string
	var args []any
	if upd.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Contact != nil {
		set = append(set, "contact = ?")
		args = append(args, *upd.Contact)
	}
	if upd.Status != nil {
		set = append(set, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.Developer != nil {
		set = append(set, "developer = ?")
		args = append(args, nullStr(*upd.Developer))
	}
	if len(set) == 0 {
		return domain.Task{}, fmt.Errorf("update task %s: no fields", id)
	}
	set = append(set, "updated_at = ?")
	args = append(args, time.Now().Unix(), id)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE tasks SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return domain.Task{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	if err := appendTaskHistory(ctx, tx, id, rec); err != nil {
		return domain.Task{}, err
	}

	task, err := scanTask(tx.QueryRowContext(ctx,
		`SELECT id, description, contact, client_id, status, developer, created_at, updated_at
		 FROM tasks WHERE id = ?`, id))
	if err != nil {
		return domain.Task{}, err
	}
	return task, tx.Commit()
}

// MarkTaskDeleted flips status to deleted iff the task is not already
// deleted. The row is never removed.
func (d *DB) MarkTaskDeleted(ctx context.Context, id string, rec domain.TaskHistoryRecord) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status != ?`,
		string(domain.TaskDeleted), time.Now().Unix(), id, string(domain.TaskDeleted),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either absent or already deleted; look to tell them apart.
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, id).Scan(&status)
		if err == sql.ErrNoRows {
			return domain.ErrTaskNotFound
		}
		if err != nil {
			return err
		}
		return domain.ErrAlreadyDeleted
	}

	if err := appendTaskHistory(ctx, tx, id, rec); err != nil {
		return err
	}
	return tx.Commit()
}

// TaskHistory returns the task's audit trail in append order.
func (d *DB) TaskHistory(ctx context.Context, taskID string) ([]domain.TaskHistoryRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT action, timestamp, user, changes FROM task_history WHERE task_id = ? ORDER BY id`,
		taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TaskHistoryRecord
	for rows.Next() {
		var rec domain.TaskHistoryRecord
		var action string
		var ts int64
		var changes sql.NullString
		if err := rows.Scan(&action, &ts, &rec.User, &changes); err != nil {
			return nil, err
		}
		rec.Action = domain.TaskAction(action)
		rec.Timestamp = time.Unix(ts, 0).UTC()
		if changes.Valid && changes.String != "" {
			if err := json.Unmarshal([]byte(changes.String), &rec.Changes); err != nil {
				return nil, fmt.Errorf("decode history changes: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func appendTaskHistory(ctx context.Context, tx *sql.Tx, taskID string, rec domain.TaskHistoryRecord) error {
	if !rec.Action.Valid() {
		return fmt.Errorf("invalid task action %q", rec.Action)
	}
	var changes any
	if len(rec.Changes) > 0 {
		payload, err := json.Marshal(rec.Changes)
		if err != nil {
			return fmt.Errorf("encode history changes: %w", err)
		}
		changes = string(payload)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO task_history (task_id, action, timestamp, user, changes) VALUES (?, ?, ?, ?, ?)`,
		taskID, string(rec.Action), rec.Timestamp.Unix(), rec.User, changes,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var status string
	var developer sql.NullString
	var created, updated int64
	err := row.Scan(&t.ID, &t.Description, &t.Contact, &t.ClientID, &status, &developer, &created, &updated)
	if err == sql.ErrNoRows {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.TaskStatus(status)
	if developer.Valid {
		t.Developer = developer.String
	}
	t.CreatedAt = time.Unix(created, 0).UTC()
	t.UpdatedAt = time.Unix(updated, 0).UTC()
	return t, nil
}
