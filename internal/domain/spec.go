package domain

import (
	"time"

	"github.com/google/uuid"
)

// SpecStatus tracks the technical task (TZ) lifecycle.
type SpecStatus string

const (
	SpecNew        SpecStatus = "new"
	SpecInProgress SpecStatus = "in_progress"
	SpecCompleted  SpecStatus = "completed"
	// SpecDeclined never persists as the stored status: a decline resets
	// the spec to SpecNew and is recorded only in history.
	SpecDeclined SpecStatus = "declined"
)

// Valid reports whether s is a known spec status.
func (s SpecStatus) Valid() bool {
	switch s {
	case SpecNew, SpecInProgress, SpecCompleted, SpecDeclined:
		return true
	}
	return false
}

// TechnicalTask (TZ) is a developer-authored, priced specification derived
// from exactly one Task. Workers claim it exclusively: the claim holds while
// Status is in_progress and Worker names the holder. A decline returns it to
// the pool; completion is terminal and cascades to the parent Task.
type TechnicalTask struct {
	ID          string     `json:"id"`
	TaskID      string     `json:"task_id"`
	Description string     `json:"description"`
	Payment     int64      `json:"payment"` // positive, currency minor units not modeled
	Status      SpecStatus `json:"status"`
	Developer   string     `json:"developer"`        // immutable, set at creation
	Worker      string     `json:"worker,omitempty"` // empty unless claimed
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HeldBy reports whether worker currently holds the claim on the spec.
func (z *TechnicalTask) HeldBy(worker string) bool {
	return z.Status == SpecInProgress && z.Worker == worker
}

// Available reports whether the spec can be claimed.
func (z *TechnicalTask) Available() bool {
	return z.Status == SpecNew && z.Worker == ""
}

// NewTechnicalTask builds a TZ in its initial, claimable state.
func NewTechnicalTask(taskID, description string, payment int64, developer string) TechnicalTask {
	now := time.Now().UTC()
	return TechnicalTask{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		Description: description,
		Payment:     payment,
		Status:      SpecNew,
		Developer:   developer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SpecFilter narrows spec listings. Zero values mean "any".
type SpecFilter struct {
	Statuses      []SpecStatus
	Worker        string
	AvailableOnly bool // status = new and no worker
}
