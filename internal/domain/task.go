// Package domain holds the core entities of the work-coordination flow:
// a client-submitted Task, the developer-priced TechnicalTask derived from
// it, and the append-only history both carry. Entities are pure data; the
// lifecycle rules live in app/lifecycle and the storage in infra/sqlite.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus tracks the client task lifecycle.
type TaskStatus string

const (
	TaskNew        TaskStatus = "new"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskDeleted    TaskStatus = "deleted"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNew, TaskInProgress, TaskCompleted, TaskDeleted:
		return true
	}
	return false
}

// Task is a client's raw work request. Status only moves forward:
// new → in_progress (spec written) → completed, with deleted as an
// alternate terminal state. Deletion is a status flip, never a row removal.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Contact     string     `json:"contact"`
	ClientID    int64      `json:"client_id"`
	Status      TaskStatus `json:"status"`
	Developer   string     `json:"developer,omitempty"` // set once, when the spec is written
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsTerminal returns true if the task permits no further transitions.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskDeleted
}

// NewTask builds a Task in its initial state. Inputs are assumed validated.
func NewTask(clientID int64, description, contact string) Task {
	now := time.Now().UTC()
	return Task{
		ID:          uuid.NewString(),
		Description: description,
		Contact:     contact,
		ClientID:    clientID,
		Status:      TaskNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TaskFilter narrows task listings. Zero values mean "any".
type TaskFilter struct {
	Statuses  []TaskStatus
	ClientID  int64
	Developer string
}
