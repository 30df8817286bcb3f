package domain

import "time"

// History actions are closed enums per entity kind, so an invalid action is
// a construction-time error rather than a stray string in the audit trail.

// TaskAction is an auditable event on a Task.
type TaskAction string

const (
	TaskActionCreated         TaskAction = "created"
	TaskActionUpdated         TaskAction = "updated"
	TaskActionDeleted         TaskAction = "deleted"
	TaskActionSpecCreated     TaskAction = "technical_task_created"
	TaskActionWorkerAssigned  TaskAction = "worker_assigned"
	TaskActionWorkerDeclined  TaskAction = "worker_declined"
	TaskActionWorkerCompleted TaskAction = "completed_by_worker"
)

// Valid reports whether a is a known task action.
func (a TaskAction) Valid() bool {
	switch a {
	case TaskActionCreated, TaskActionUpdated, TaskActionDeleted,
		TaskActionSpecCreated, TaskActionWorkerAssigned,
		TaskActionWorkerDeclined, TaskActionWorkerCompleted:
		return true
	}
	return false
}

// SpecAction is an auditable event on a TechnicalTask.
type SpecAction string

const (
	SpecActionCreated   SpecAction = "created"
	SpecActionTaken     SpecAction = "taken"
	SpecActionDeclined  SpecAction = "declined"
	SpecActionCompleted SpecAction = "completed"
)

// Valid reports whether a is a known spec action.
func (a SpecAction) Valid() bool {
	switch a {
	case SpecActionCreated, SpecActionTaken, SpecActionDeclined, SpecActionCompleted:
		return true
	}
	return false
}

// TaskHistoryRecord is one immutable audit entry on a Task. Records are
// append-only; their storage order is the causal order of mutation.
type TaskHistoryRecord struct {
	Action    TaskAction        `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
	User      string            `json:"user"`
	Changes   map[string]string `json:"changes,omitempty"` // updated records only
}

// SpecHistoryRecord is one immutable audit entry on a TechnicalTask.
type SpecHistoryRecord struct {
	Action    SpecAction `json:"action"`
	Timestamp time.Time  `json:"timestamp"`
	User      string     `json:"user"`
}

// TaskEvent builds a history record stamped now.
func TaskEvent(action TaskAction, user string) TaskHistoryRecord {
	return TaskHistoryRecord{Action: action, Timestamp: time.Now().UTC(), User: user}
}

// SpecEvent builds a history record stamped now.
func SpecEvent(action SpecAction, user string) SpecHistoryRecord {
	return SpecHistoryRecord{Action: action, Timestamp: time.Now().UTC(), User: user}
}
