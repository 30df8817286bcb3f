package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/qamqor-studio/qamqor/internal/domain"
)

// ─── Technical Task Repository ──────────────────────────────────────────────
// Claim, release, and complete are conditional UPDATEs: the WHERE clause
// carries the expected current state, and zero affected rows means the
// caller lost the race or never held the claim. Paired task/spec writes
// commit in one transaction.

// InsertSpec creates the spec, flips the parent task to in_progress with the
// developer set, and appends history to both entities, in one transaction.
// A terminal parent rejects the spec: completed and deleted never move back.
func (d *DB) InsertSpec(ctx context.Context, spec domain.TechnicalTask, specRec domain.SpecHistoryRecord, taskRec domain.TaskHistoryRecord) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, spec.TaskID).Scan(&status)
	if err == sql.ErrNoRows {
		return domain.ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	if st := domain.TaskStatus(status); st == domain.TaskCompleted || st == domain.TaskDeleted {
		return domain.ErrTaskClosed
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO technical_tasks (id, task_id, description, payment, status, developer, worker, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spec.ID, spec.TaskID, spec.Description, spec.Payment,
		string(spec.Status), spec.Developer, nullStr(spec.Worker),
		spec.CreatedAt.Unix(), spec.UpdatedAt.Unix(),
	)
	if err != nil {
		// UNIQUE(task_id) is the one-spec-per-task guarantee.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrSpecExists
		}
		return err
	}

	// Conditional flip: only a new task takes a spec.
	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status = ?, developer = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(domain.TaskInProgress), spec.Developer, time.Now().Unix(), spec.TaskID, string(domain.TaskNew),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTaskClosed
	}

	if err := appendSpecHistory(ctx, tx, spec.ID, specRec); err != nil {
		return err
	}
	if err := appendTaskHistory(ctx, tx, spec.TaskID, taskRec); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSpec fetches a technical task by id.
func (d *DB) GetSpec(ctx context.Context, id string) (domain.TechnicalTask, error) {
	return scanSpec(d.db.QueryRowContext(ctx, specSelect+` WHERE id = ?`, id))
}

// GetSpecForTask fetches the technical task referencing taskID, if any.
func (d *DB) GetSpecForTask(ctx context.Context, taskID string) (domain.TechnicalTask, error) {
	return scanSpec(d.db.QueryRowContext(ctx, specSelect+` WHERE task_id = ?`, taskID))
}

// ListSpecs returns technical tasks matching the filter, most recently
// created first.
func (d *DB) ListSpecs(ctx context.Context, filter domain.SpecFilter) ([]domain.TechnicalTask, error) {
	query := specSelect
	var where []string
	var args []any

	if filter.AvailableOnly {
		where = append(where, "status = ?", "worker IS NULL")
		args = append(args, string(domain.SpecNew))
	} else if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.Worker != "" {
		where = append(where, "worker = ?")
		args = append(args, filter.Worker)
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

	var specs []domain.TechnicalTask
	for rows.Next() {
		spec, err := scanSpec(rows)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, rows.Err()
}

// ClaimSpec takes the spec for worker iff it is still new and unclaimed.
// Exactly one of two racing claimers can win; the loser gets ErrSpecTaken.
func (d *DB) ClaimSpec(ctx context.Context, id, worker string, specRec domain.SpecHistoryRecord, taskRec domain.TaskHistoryRecord) (domain.TechnicalTask, error) {
	return d.transitionSpec(ctx, id,
		`UPDATE technical_tasks SET status = ?, worker = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND worker IS NULL`,
		[]any{string(domain.SpecInProgress), worker, time.Now().Unix(), id, string(domain.SpecNew)},
		domain.ErrSpecTaken, specRec, taskRec)
}

// ReleaseSpec returns the spec to the pool iff worker currently holds it.
func (d *DB) ReleaseSpec(ctx context.Context, id, worker string, specRec domain.SpecHistoryRecord, taskRec domain.TaskHistoryRecord) (domain.TechnicalTask, error) {
	return d.transitionSpec(ctx, id,
		`UPDATE technical_tasks SET status = ?, worker = NULL, updated_at = ?
		 WHERE id = ? AND status = ? AND worker = ?`,
		[]any{string(domain.SpecNew), time.Now().Unix(), id, string(domain.SpecInProgress), worker},
		domain.ErrNotHolder, specRec, taskRec)
}

// CompleteSpec finishes the spec iff worker holds it, and cascades the
// parent task to completed in the same transaction.
func (d *DB) CompleteSpec(ctx context.Context, id, worker string, specRec domain.SpecHistoryRecord, taskRec domain.TaskHistoryRecord) (domain.TechnicalTask, error) {
	return d.transitionSpec(ctx, id,
		`UPDATE technical_tasks SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND worker = ?`,
		[]any{string(domain.SpecCompleted), time.Now().Unix(), id, string(domain.SpecInProgress), worker},
		domain.ErrNotHolder, specRec, taskRec)
}

// SpecHistory returns the spec's audit trail in append order.
func (d *DB) SpecHistory(ctx context.Context, specID string) ([]domain.SpecHistoryRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT action, timestamp, user FROM spec_history WHERE spec_id = ? ORDER BY id`,
		specID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.SpecHistoryRecord
	for rows.Next() {
		var rec domain.SpecHistoryRecord
		var action string
		var ts int64
		if err := rows.Scan(&action, &ts, &rec.User); err != nil {
			return nil, err
		}
		rec.Action = domain.SpecAction(action)
		rec.Timestamp = time.Unix(ts, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// transitionSpec runs one conditional spec UPDATE plus the paired history
// appends. failErr is returned when the spec exists but the condition did
// not hold (race lost, or caller is not the holder).
func (d *DB) transitionSpec(ctx context.Context, id, update string, args []any, failErr error, specRec domain.SpecHistoryRecord, taskRec domain.TaskHistoryRecord) (domain.TechnicalTask, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.TechnicalTask{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return domain.TechnicalTask{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM technical_tasks WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return domain.TechnicalTask{}, domain.ErrSpecNotFound
		}
		if err != nil {
			return domain.TechnicalTask{}, err
		}
		return domain.TechnicalTask{}, failErr
	}

	spec, err := scanSpec(tx.QueryRowContext(ctx, specSelect+` WHERE id = ?`, id))
	if err != nil {
		return domain.TechnicalTask{}, err
	}

	if err := appendSpecHistory(ctx, tx, id, specRec); err != nil {
		return domain.TechnicalTask{}, err
	}
	if err := appendTaskHistory(ctx, tx, spec.TaskID, taskRec); err != nil {
		return domain.TechnicalTask{}, err
	}

	// A completed spec finishes its parent task in the same unit of work.
	if spec.Status == domain.SpecCompleted {
		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
			string(domain.TaskCompleted), time.Now().Unix(), spec.TaskID,
		)
		if err != nil {
			return domain.TechnicalTask{}, err
		}
	}

	return spec, tx.Commit()
}

const specSelect = `SELECT id, task_id, description, payment, status, developer, worker, created_at, updated_at FROM technical_tasks`

func appendSpecHistory(ctx context.Context, tx *sql.Tx, specID string, rec domain.SpecHistoryRecord) error {
	if !rec.Action.Valid() {
		return fmt.Errorf("invalid spec action %q", rec.Action)
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO spec_history (spec_id, action, timestamp, user) VALUES (?, ?, ?, ?)`,
		specID, string(rec.Action), rec.Timestamp.Unix(), rec.User,
	)
	return err
}

func scanSpec(row rowScanner) (domain.TechnicalTask, error) {
	var z domain.TechnicalTask
	var status string
	var worker sql.NullString
	var created, updated int64
	err := row.Scan(&z.ID, &z.TaskID, &z.Description, &z.Payment, &status, &z.Developer, &worker, &created, &updated)
	if err == sql.ErrNoRows {
		return domain.TechnicalTask{}, domain.ErrSpecNotFound
	}
	if err != nil {
		return domain.TechnicalTask{}, err
	}
	z.Status = domain.SpecStatus(status)
	if worker.Valid {
		z.Worker = worker.String
	}
	z.CreatedAt = time.Unix(created, 0).UTC()
	z.UpdatedAt = time.Unix(updated, 0).UTC()
	return z, nil
}
