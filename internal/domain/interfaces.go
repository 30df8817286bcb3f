package domain

import "context"

// ─── Storage Interface ──────────────────────────────────────────────────────
// Store is the durable document store the lifecycle engine runs against.
// Infrastructure implements it; the application layer depends on it.
//
// Every operation that reads current state and writes a new one must apply
// as a single atomic check-and-set, and operations that touch both a spec
// and its parent task must commit as one unit. Silent last-write-wins is
// not acceptable; a lost conditional write surfaces as ErrSpecTaken or
// ErrNotHolder.

// TaskUpdate carries the allow-listed mutable task fields. Nil means
// "leave unchanged".
type TaskUpdate struct {
	Description *string
	Contact     *string
	Status      *TaskStatus
	Developer   *string
}

// Store persists tasks, technical tasks, and their embedded histories.
type Store interface {
	// Tasks
	InsertTask(ctx context.Context, task Task, rec TaskHistoryRecord) error
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	// UpdateTaskFields applies upd and appends rec in one transaction.
	UpdateTaskFields(ctx context.Context, id string, upd TaskUpdate, rec TaskHistoryRecord) (Task, error)
	// MarkTaskDeleted flips status to deleted iff not already deleted.
	MarkTaskDeleted(ctx context.Context, id string, rec TaskHistoryRecord) error
	TaskHistory(ctx context.Context, taskID string) ([]TaskHistoryRecord, error)

	// Technical tasks
	// InsertSpec creates the spec and transitions the parent task to
	// in_progress with the developer set, appending history to both, in one
	// transaction. A second spec for the same task fails with ErrSpecExists;
	// a completed or deleted parent fails with ErrTaskClosed and stays put.
	InsertSpec(ctx context.Context, spec TechnicalTask, specRec SpecHistoryRecord, taskRec TaskHistoryRecord) error
	GetSpec(ctx context.Context, id string) (TechnicalTask, error)
	GetSpecForTask(ctx context.Context, taskID string) (TechnicalTask, error)
	ListSpecs(ctx context.Context, filter SpecFilter) ([]TechnicalTask, error)
	// ClaimSpec is a compare-and-set: it succeeds only from status=new with
	// no worker, otherwise ErrSpecTaken. History lands on both entities.
	ClaimSpec(ctx context.Context, id, worker string, specRec SpecHistoryRecord, taskRec TaskHistoryRecord) (TechnicalTask, error)
	// ReleaseSpec resets the spec to new/unclaimed iff worker holds it.
	ReleaseSpec(ctx context.Context, id, worker string, specRec SpecHistoryRecord, taskRec TaskHistoryRecord) (TechnicalTask, error)
	// CompleteSpec finishes the spec iff worker holds it and cascades the
	// parent task to completed in the same transaction.
	CompleteSpec(ctx context.Context, id, worker string, specRec SpecHistoryRecord, taskRec TaskHistoryRecord) (TechnicalTask, error)
	SpecHistory(ctx context.Context, specID string) ([]SpecHistoryRecord, error)
}
