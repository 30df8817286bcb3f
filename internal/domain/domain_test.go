package domain

import (
	"errors"
	"fmt"
	"testing"
)

// ─── Validation ─────────────────────────────────────────────────────────────

func TestValidDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"build a landing page", "build a landing page", true},
		{"  padded description  ", "padded description", true},
		{"exactly10!", "exactly10!", true},
		{"short", "", false},
		{"", "", false},
		{"         ", "", false},
		{"ab cd ef ", "", false}, // 8 after trim
	}
	for _, tt := range tests {
		got, ok := ValidDescription(tt.in)
		if ok != tt.ok {
			t.Errorf("ValidDescription(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ValidDescription(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeContact(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"user@example.com", "user@example.com", true},
		{"  user@example.com  ", "user@example.com", true},
		{"+7 (999) 123-45-67", "+79991234567", true},
		{"79991234567", "+79991234567", true},
		{"8 999 123 45 67", "+89991234567", true},
		{"123456789012345", "+123456789012345", true}, // 15 digits, upper bound
		{"123456789", "", false},                      // 9 digits
		{"1234567890123456", "", false},               // 16 digits
		{"not a contact", "", false},
		{"user@nodot", "", false},
		{"@example.com", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeContact(tt.in)
		if ok != tt.ok {
			t.Errorf("NormalizeContact(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("NormalizeContact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := NormalizePhone("7 999 123-45-67"); got != "+79991234567" {
		t.Errorf("NormalizePhone() = %q, want +79991234567", got)
	}
}

func TestParsePayment(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"15000", 15000, true},
		{" 1 ", 1, true},
		{"0", 0, false},
		{"-500", 0, false},
		{"15000.50", 0, false},
		{"free", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePayment(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParsePayment(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// ─── Role Resolution ────────────────────────────────────────────────────────

func TestRolesResolve(t *testing.T) {
	roles := NewRoles([]string{"Alice", "both"}, []string{"bob", "Both", " carol "})

	tests := []struct {
		handle string
		want   Role
	}{
		{"alice", RoleDeveloper},
		{"ALICE", RoleDeveloper},
		{"bob", RoleWorker},
		{"Carol", RoleWorker},
		{"both", RoleDeveloper}, // developer membership wins
		{"dave", RoleClient},
		{"", RoleClient},
		{"  ", RoleClient},
	}
	for _, tt := range tests {
		if got := roles.Resolve(tt.handle); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.handle, got, tt.want)
		}
	}
}

func TestRolesResolve_EmptySets(t *testing.T) {
	roles := NewRoles(nil, nil)
	if got := roles.Resolve("anyone"); got != RoleClient {
		t.Errorf("Resolve() = %q, want client", got)
	}
}

// ─── Events and Actions ─────────────────────────────────────────────────────

func TestSplitAction(t *testing.T) {
	tests := []struct {
		payload string
		verb    string
		id      string
	}{
		{"client_create_task", "client_create_task", ""},
		{"edit_task:abc-123", "edit_task", "abc-123"},
		{"take_tz:id:with:colons", "take_tz", "id:with:colons"},
		{"", "", ""},
	}
	for _, tt := range tests {
		verb, id := SplitAction(tt.payload)
		if verb != tt.verb || id != tt.id {
			t.Errorf("SplitAction(%q) = (%q, %q), want (%q, %q)", tt.payload, verb, id, tt.verb, tt.id)
		}
	}
}

func TestEventActor(t *testing.T) {
	ev := Event{UserID: 42, Handle: "alice"}
	if got := ev.Actor(); got != "alice" {
		t.Errorf("Actor() = %q, want alice", got)
	}
	ev.Handle = ""
	if got := ev.Actor(); got != "42" {
		t.Errorf("Actor() = %q, want 42", got)
	}
}

// ─── Entities ───────────────────────────────────────────────────────────────

func TestNewTask(t *testing.T) {
	task := NewTask(7, "build a landing page", "+79991234567")
	if task.ID == "" {
		t.Error("ID should be set")
	}
	if task.Status != TaskNew {
		t.Errorf("Status = %q, want new", task.Status)
	}
	if task.ClientID != 7 {
		t.Errorf("ClientID = %d, want 7", task.ClientID)
	}
	if task.IsTerminal() {
		t.Error("new task should not be terminal")
	}
	if task.CreatedAt.IsZero() || !task.CreatedAt.Equal(task.UpdatedAt) {
		t.Error("timestamps should be set and equal at creation")
	}
}

func TestTaskIsTerminal(t *testing.T) {
	for status, want := range map[TaskStatus]bool{
		TaskNew:        false,
		TaskInProgress: false,
		TaskCompleted:  true,
		TaskDeleted:    true,
	} {
		task := Task{Status: status}
		if got := task.IsTerminal(); got != want {
			t.Errorf("IsTerminal() with status %q = %v, want %v", status, got, want)
		}
	}
}

func TestNewTechnicalTask(t *testing.T) {
	spec := NewTechnicalTask("task-1", "wire up the payment form", 15000, "alice")
	if spec.ID == "" {
		t.Error("ID should be set")
	}
	if !spec.Available() {
		t.Error("fresh spec should be available")
	}
	if spec.HeldBy("bob") {
		t.Error("fresh spec should not be held")
	}

	spec.Status = SpecInProgress
	spec.Worker = "bob"
	if spec.Available() {
		t.Error("claimed spec should not be available")
	}
	if !spec.HeldBy("bob") {
		t.Error("claimed spec should be held by its worker")
	}
	if spec.HeldBy("carol") {
		t.Error("claimed spec should not be held by another worker")
	}
}

func TestStatusValid(t *testing.T) {
	if !TaskInProgress.Valid() || TaskStatus("bogus").Valid() {
		t.Error("TaskStatus.Valid() misclassified")
	}
	if !SpecCompleted.Valid() || SpecStatus("bogus").Valid() {
		t.Error("SpecStatus.Valid() misclassified")
	}
	if !TaskActionSpecCreated.Valid() || TaskAction("bogus").Valid() {
		t.Error("TaskAction.Valid() misclassified")
	}
	if !SpecActionTaken.Valid() || SpecAction("bogus").Valid() {
		t.Error("SpecAction.Valid() misclassified")
	}
}

// ─── Error Mapping ──────────────────────────────────────────────────────────

func TestFailureFor(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{ErrTaskNotFound, FailureNotFound},
		{ErrSpecNotFound, FailureNotFound},
		{ErrSpecExists, FailureDuplicate},
		{ErrSpecTaken, FailureUnavailable},
		{ErrNotHolder, FailureForbidden},
		{ErrInvalidField, FailureForbidden},
		{ErrTaskClosed, FailureForbidden},
		{ErrAlreadyDeleted, FailureAlreadyDeleted},
		{errors.New("disk on fire"), FailureStorage},
		{fmt.Errorf("claim: %w", ErrSpecTaken), FailureUnavailable}, // wrapped
	}
	for _, tt := range tests {
		if got := FailureFor(tt.err); got != tt.want {
			t.Errorf("FailureFor(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
