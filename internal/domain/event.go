package domain

import "strings"

// EventKind classifies an inbound event from the messaging platform.
// The transport itself (webhook parsing, long polling) is out of scope;
// events arrive already shaped.
type EventKind string

const (
	EventCommand EventKind = "command"         // start, menu, help, cancel
	EventAction  EventKind = "callback_action" // opaque token: verb or verb:id
	EventText    EventKind = "text"            // free text against the current session step
	EventContact EventKind = "contact"         // structured phone share, digits only
)

// Event is one inbound interaction from a user.
type Event struct {
	UserID  int64     `json:"user_id"`
	Handle  string    `json:"handle,omitempty"`
	Kind    EventKind `json:"kind"`
	Payload string    `json:"payload"`
}

// Actor returns the identity recorded in history: the handle when present,
// otherwise the stringified user id.
func (e *Event) Actor() string {
	if e.Handle != "" {
		return e.Handle
	}
	return formatUserID(e.UserID)
}

// SplitAction parses a callback token of the shape "verb" or "verb:id".
func SplitAction(payload string) (verb, id string) {
	verb, id, _ = strings.Cut(payload, ":")
	return verb, id
}

// ResultKind tags an outbound outcome. The presentation layer renders it;
// the core never emits platform markup.
type ResultKind string

const (
	ResultPrompt       ResultKind = "prompt"       // ask the user for input
	ResultMenu         ResultKind = "menu"         // role menu with action tokens
	ResultConfirmation ResultKind = "confirmation" // operation done, informational
	ResultList         ResultKind = "entity_list"  // entities with per-item actions
	ResultFailure      ResultKind = "failure"      // tagged failure, see FailureKind
)

// FailureKind tags a user-visible failure. Validation problems never become
// failures; they re-prompt in place.
type FailureKind string

const (
	FailureNotFound       FailureKind = "not_found"
	FailureDuplicate      FailureKind = "duplicate"
	FailureUnavailable    FailureKind = "unavailable"
	FailureForbidden      FailureKind = "forbidden"
	FailureAlreadyDeleted FailureKind = "already_deleted"
	FailureStorage        FailureKind = "storage"
	FailureUnknownAction  FailureKind = "unknown_action"
)

// ListItem is one entity row in a ResultList, with the action tokens the
// caller may invoke on it.
type ListItem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Detail  string   `json:"detail,omitempty"`
	Actions []string `json:"actions,omitempty"`
}

// Result is the tagged outcome of handling one event.
type Result struct {
	Kind    ResultKind  `json:"kind"`
	Text    string      `json:"text,omitempty"`
	Items   []ListItem  `json:"items,omitempty"`
	Actions []string    `json:"actions,omitempty"` // menu action tokens
	Failure FailureKind `json:"failure,omitempty"`
}

// Prompt builds a prompt result.
func Prompt(text string) Result { return Result{Kind: ResultPrompt, Text: text} }

// Confirm builds a confirmation result.
func Confirm(text string) Result { return Result{Kind: ResultConfirmation, Text: text} }

// Fail builds a failure result.
func Fail(kind FailureKind, text string) Result {
	return Result{Kind: ResultFailure, Failure: kind, Text: text}
}
