// Package lifecycle implements the task/specification lifecycle engine:
// the state machine for Task and TechnicalTask, the claim discipline that
// keeps a spec in at most one worker's hands, and the audit trail appended
// on every mutation. All checks happen as conditional writes in the store,
// so two racing workers cannot both win a claim.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/qamqor-studio/qamqor/internal/domain"
	"github.com/qamqor-studio/qamqor/internal/infra/metrics"
)

// Service is the lifecycle engine. It owns every Task/TechnicalTask
// transition; callers never mutate entities directly.
type Service struct {
	store domain.Store
}

// NewService creates a lifecycle engine over the given store.
func NewService(store domain.Store) *Service {
	return &Service{store: store}
}

// ─── Task Operations ────────────────────────────────────────────────────────

// CreateTask validates and stores a new client task. The conversation
// driver pre-validates input; the engine re-validates as a boundary check.
func (s *Service) CreateTask(ctx context.Context, clientID int64, actor, description, contact string) (domain.Task, error) {
	description, ok := domain.ValidDescription(description)
	if !ok {
		return domain.Task{}, domain.ErrBadDescription
	}
	contact, ok = domain.NormalizeContact(contact)
	if !ok {
		return domain.Task{}, domain.ErrBadContact
	}

	task := domain.NewTask(clientID, description, contact)
	if err := s.store.InsertTask(ctx, task, domain.TaskEvent(domain.TaskActionCreated, actor)); err != nil {
		return domain.Task{}, s.fail("create_task", fmt.Errorf("insert task: %w", err))
	}
	metrics.EngineOps.WithLabelValues("create_task", "ok").Inc()
	return task, nil
}

// taskUpdateAllowed is the closed set of externally mutable task fields.
var taskUpdateAllowed = map[string]struct{}{
	"description": {},
	"contact":     {},
	"status":      {},
	"developer":   {},
}

// UpdateTask applies an allow-listed field update and records which fields
// changed. Keys outside the allow-list fail with ErrInvalidField.
func (s *Service) UpdateTask(ctx context.Context, taskID string, fields map[string]string, actor string) (domain.Task, error) {
	if len(fields) == 0 {
		return domain.Task{}, fmt.Errorf("update task: %w: empty update", domain.ErrInvalidField)
	}

	var upd domain.TaskUpdate
	for key, value := range fields {
		if _, ok := taskUpdateAllowed[key]; !ok {
			return domain.Task{}, fmt.Errorf("update task: field %q: %w", key, domain.ErrInvalidField)
		}
		switch key {
		case "description":
			trimmed, ok := domain.ValidDescription(value)
			if !ok {
				return domain.Task{}, domain.ErrBadDescription
			}
			upd.Description = &trimmed
		case "contact":
			contact, ok := domain.NormalizeContact(value)
			if !ok {
				return domain.Task{}, domain.ErrBadContact
			}
			upd.Contact = &contact
		case "status":
			status := domain.TaskStatus(value)
			if !status.Valid() {
				return domain.Task{}, fmt.Errorf("update task: status %q: %w", value, domain.ErrInvalidField)
			}
			upd.Status = &status
		case "developer":
			upd.Developer = &value
		}
	}

	rec := domain.TaskEvent(domain.TaskActionUpdated, actor)
	rec.Changes = fields
	task, err := s.store.UpdateTaskFields(ctx, taskID, upd, rec)
	if err != nil {
		return domain.Task{}, s.fail("update_task", err)
	}
	metrics.EngineOps.WithLabelValues("update_task", "ok").Inc()
	return task, nil
}

// DeleteTask flips the task to deleted. A second delete is AlreadyDeleted;
// the history gains exactly one deleted entry.
func (s *Service) DeleteTask(ctx context.Context, taskID, actor string) error {
	err := s.store.MarkTaskDeleted(ctx, taskID, domain.TaskEvent(domain.TaskActionDeleted, actor))
	if err != nil {
		return s.fail("delete_task", err)
	}
	metrics.EngineOps.WithLabelValues("delete_task", "ok").Inc()
	return nil
}

// GetTask fetches one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.store.GetTask(ctx, taskID)
}

// TaskHistory returns a task's audit trail in causal order.
func (s *Service) TaskHistory(ctx context.Context, taskID string) ([]domain.TaskHistoryRecord, error) {
	return s.store.TaskHistory(ctx, taskID)
}

// ─── Task Listings ──────────────────────────────────────────────────────────

// ListTasks returns tasks matching the filter, newest first.
func (s *Service) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	return s.store.ListTasks(ctx, filter)
}

// ListSpecs returns technical tasks matching the filter, newest first.
func (s *Service) ListSpecs(ctx context.Context, filter domain.SpecFilter) ([]domain.TechnicalTask, error) {
	return s.store.ListSpecs(ctx, filter)
}

// ListTasksByStatus returns tasks in the given status, newest first.
func (s *Service) ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error) {
	return s.store.ListTasks(ctx, domain.TaskFilter{Statuses: []domain.TaskStatus{status}})
}

// TasksForClient returns every task the client ever filed, newest first.
func (s *Service) TasksForClient(ctx context.Context, clientID int64) ([]domain.Task, error) {
	return s.store.ListTasks(ctx, domain.TaskFilter{ClientID: clientID})
}

// ActiveTasksForClient returns the client's tasks still open for editing
// or deletion (new or in progress).
func (s *Service) ActiveTasksForClient(ctx context.Context, clientID int64) ([]domain.Task, error) {
	return s.store.ListTasks(ctx, domain.TaskFilter{
		Statuses: []domain.TaskStatus{domain.TaskNew, domain.TaskInProgress},
		ClientID: clientID,
	})
}

// TasksForDeveloper returns the developer's tasks in the given status.
func (s *Service) TasksForDeveloper(ctx context.Context, developer string, status domain.TaskStatus) ([]domain.Task, error) {
	return s.store.ListTasks(ctx, domain.TaskFilter{
		Statuses:  []domain.TaskStatus{status},
		Developer: developer,
	})
}

// ─── Technical Task Operations ──────────────────────────────────────────────

// CreateTechnicalTask writes the priced specification for a task and takes
// the task into work: the spec insert and the task transition commit
// together, and a task can carry at most one spec, ever.
func (s *Service) CreateTechnicalTask(ctx context.Context, taskID, description string, payment int64, developer string) (domain.TechnicalTask, error) {
	description, ok := domain.ValidDescription(description)
	if !ok {
		return domain.TechnicalTask{}, domain.ErrBadDescription
	}
	if payment <= 0 {
		return domain.TechnicalTask{}, domain.ErrBadPayment
	}

	spec := domain.NewTechnicalTask(taskID, description, payment, developer)
	err := s.store.InsertSpec(ctx, spec,
		domain.SpecEvent(domain.SpecActionCreated, developer),
		domain.TaskEvent(domain.TaskActionSpecCreated, developer),
	)
	if err != nil {
		return domain.TechnicalTask{}, s.fail("create_spec", err)
	}
	metrics.EngineOps.WithLabelValues("create_spec", "ok").Inc()
	return spec, nil
}

// Claim takes an available spec for worker. Exactly one of any number of
// concurrent claimers wins; the rest get ErrSpecTaken and no history entry.
func (s *Service) Claim(ctx context.Context, specID, worker string) (domain.TechnicalTask, error) {
	spec, err := s.store.ClaimSpec(ctx, specID, worker,
		domain.SpecEvent(domain.SpecActionTaken, worker),
		domain.TaskEvent(domain.TaskActionWorkerAssigned, worker),
	)
	if err != nil {
		if errors.Is(err, domain.ErrSpecTaken) {
			metrics.ClaimConflicts.Inc()
		}
		return domain.TechnicalTask{}, s.fail("claim", err)
	}
	metrics.EngineOps.WithLabelValues("claim", "ok").Inc()
	return spec, nil
}

// Decline releases a held spec back to the pool. Only the current holder
// may decline; the spec becomes claimable by anyone again.
func (s *Service) Decline(ctx context.Context, specID, worker string) (domain.TechnicalTask, error) {
	spec, err := s.store.ReleaseSpec(ctx, specID, worker,
		domain.SpecEvent(domain.SpecActionDeclined, worker),
		domain.TaskEvent(domain.TaskActionWorkerDeclined, worker),
	)
	if err != nil {
		return domain.TechnicalTask{}, s.fail("decline", err)
	}
	metrics.EngineOps.WithLabelValues("decline", "ok").Inc()
	return spec, nil
}

// Complete finishes a held spec and cascades the parent task to completed.
// Terminal for both entities.
func (s *Service) Complete(ctx context.Context, specID, worker string) (domain.TechnicalTask, error) {
	spec, err := s.store.CompleteSpec(ctx, specID, worker,
		domain.SpecEvent(domain.SpecActionCompleted, worker),
		domain.TaskEvent(domain.TaskActionWorkerCompleted, worker),
	)
	if err != nil {
		return domain.TechnicalTask{}, s.fail("complete", err)
	}
	metrics.EngineOps.WithLabelValues("complete", "ok").Inc()
	return spec, nil
}

// GetSpec fetches one technical task.
func (s *Service) GetSpec(ctx context.Context, specID string) (domain.TechnicalTask, error) {
	return s.store.GetSpec(ctx, specID)
}

// SpecForTask fetches the technical task derived from taskID, if any.
func (s *Service) SpecForTask(ctx context.Context, taskID string) (domain.TechnicalTask, error) {
	return s.store.GetSpecForTask(ctx, taskID)
}

// SpecHistory returns a spec's audit trail in causal order.
func (s *Service) SpecHistory(ctx context.Context, specID string) ([]domain.SpecHistoryRecord, error) {
	return s.store.SpecHistory(ctx, specID)
}

// AvailableSpecs returns unclaimed specs, newest first.
func (s *Service) AvailableSpecs(ctx context.Context) ([]domain.TechnicalTask, error) {
	return s.store.ListSpecs(ctx, domain.SpecFilter{AvailableOnly: true})
}

// ActiveSpecsForWorker returns the specs worker currently holds.
func (s *Service) ActiveSpecsForWorker(ctx context.Context, worker string) ([]domain.TechnicalTask, error) {
	return s.store.ListSpecs(ctx, domain.SpecFilter{
		Statuses: []domain.SpecStatus{domain.SpecInProgress},
		Worker:   worker,
	})
}

// fail records the op outcome and logs storage-level surprises. Expected
// contract violations (not found, taken, not holder) stay quiet.
func (s *Service) fail(op string, err error) error {
	kind := domain.FailureFor(err)
	metrics.EngineOps.WithLabelValues(op, string(kind)).Inc()
	if kind == domain.FailureStorage {
		log.Printf("[engine] %s: %v", op, err)
	}
	return err
}
