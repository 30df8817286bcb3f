// Package dialog is the conversation driver: it interprets inbound events
// against each user's session step, validates input, and invokes lifecycle
// engine operations when a step sequence completes. It returns tagged
// outcomes only; rendering them is the presentation layer's problem.
package dialog

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/qamqor-studio/qamqor/internal/app/lifecycle"
	"github.com/qamqor-studio/qamqor/internal/app/session"
	"github.com/qamqor-studio/qamqor/internal/domain"
	"github.com/qamqor-studio/qamqor/internal/infra/metrics"
)

// Driver routes inbound events by resolved role and session step.
type Driver struct {
	engine   *lifecycle.Service
	roles    *domain.Roles
	sessions *session.Store
}

// New creates a conversation driver.
func New(engine *lifecycle.Service, roles *domain.Roles, sessions *session.Store) *Driver {
	return &Driver{engine: engine, roles: roles, sessions: sessions}
}

// Handle processes one inbound event and returns the outcome. The role is
// resolved exactly once here and passed explicitly below.
func (d *Driver) Handle(ctx context.Context, ev domain.Event) domain.Result {
	start := time.Now()
	role := d.roles.Resolve(ev.Handle)
	metrics.EventsTotal.WithLabelValues(string(ev.Kind), string(role)).Inc()
	defer func() {
		metrics.EventLatency.Observe(time.Since(start).Seconds())
	}()

	switch ev.Kind {
	case domain.EventCommand:
		return d.handleCommand(ctx, ev, role)
	case domain.EventAction:
		return d.handleAction(ctx, ev, role)
	case domain.EventText:
		return d.handleText(ctx, ev, role)
	case domain.EventContact:
		return d.handleContact(ctx, ev)
	}
	return domain.Fail(domain.FailureUnknownAction, "Unsupported event.")
}

// ─── Commands ───────────────────────────────────────────────────────────────

func (d *Driver) handleCommand(ctx context.Context, ev domain.Event, role domain.Role) domain.Result {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ev.Payload), "/")) {
	case "start":
		return d.menu(role, welcomeText(role))
	case "menu":
		return d.menu(role, "Choose an action:")
	case "help":
		return domain.Confirm(helpText(role))
	case "cancel":
		d.sessions.Clear(ev.UserID)
		return d.menu(role, "Action cancelled.")
	}
	return domain.Fail(domain.FailureUnknownAction, "Unknown command. Try /menu or /help.")
}

// ─── Callback Actions ───────────────────────────────────────────────────────

func (d *Driver) handleAction(ctx context.Context, ev domain.Event, role domain.Role) domain.Result {
	verb, id := domain.SplitAction(ev.Payload)

	// History views are open to every role.
	switch verb {
	case "task_history":
		return d.taskHistory(ctx, id)
	case "tz_history":
		return d.specHistory(ctx, id)
	case "back_to_menu":
		return d.menu(role, "Choose an action:")
	case "cancel_edit", "cancel_delete", "cancel_tz":
		return d.menu(role, "Action cancelled.")
	}

	// Client actions carry no role gate: anyone may file a task.
	switch verb {
	case "client_create_task":
		return d.startCreateTask(ev)
	case "client_edit_task":
		return d.listEditableTasks(ctx, ev)
	case "client_delete_task":
		return d.listDeletableTasks(ctx, ev)
	case "client_view_progress":
		return d.viewProgress(ctx, ev)
	case "edit_task":
		return d.startEditTask(ctx, ev, id)
	case "delete_task":
		return d.deleteTask(ctx, ev, id)
	}

	switch verb {
	case "dev_list_tasks", "dev_create_tz", "dev_in_progress", "dev_completed", "create_tz", "take_task":
		if role != domain.RoleDeveloper {
			return domain.Fail(domain.FailureForbidden, "This action is for developers only.")
		}
		return d.developerAction(ctx, ev, verb, id)
	case "worker_available_tz", "worker_decline", "worker_complete", "take_tz", "decline_tz", "complete_tz":
		if role != domain.RoleWorker {
			return domain.Fail(domain.FailureForbidden, "This action is for workers only.")
		}
		return d.workerAction(ctx, ev, verb, id)
	}

	log.Printf("[dialog] unknown action %q from user %d", ev.Payload, ev.UserID)
	return domain.Fail(domain.FailureUnknownAction, "Unknown action.")
}

// ─── Text & Contact ─────────────────────────────────────────────────────────

func (d *Driver) handleText(ctx context.Context, ev domain.Event, role domain.Role) domain.Result {
	sess := d.sessions.Get(ev.UserID)
	if !sess.Active() {
		return d.menu(role, "Choose an action:")
	}

	text := strings.TrimSpace(ev.Payload)
	if isCancel(text) {
		d.sessions.Clear(ev.UserID)
		return d.menu(role, "Action cancelled.")
	}

	switch sess.Step {
	case session.StepDescription:
		return d.advanceDescription(ev, sess, text)
	case session.StepContact:
		return d.advanceContact(ctx, ev, sess, text)
	case session.StepNewDescription:
		return d.advanceNewDescription(ctx, ev, sess, text)
	case session.StepSpecDescription:
		return d.advanceSpecDescription(ev, sess, text)
	case session.StepSpecPayment:
		return d.advanceSpecPayment(ctx, ev, sess, text)
	}

	// A session with an unknown step is stuck state; drop it.
	d.sessions.Clear(ev.UserID)
	return d.menu(role, "Choose an action:")
}

// handleContact accepts a structured phone share, valid only while the
// conversation is waiting for a contact.
func (d *Driver) handleContact(ctx context.Context, ev domain.Event) domain.Result {
	sess := d.sessions.Get(ev.UserID)
	if sess.Step != session.StepContact {
		return d.menu(d.roles.Resolve(ev.Handle), "Choose an action:")
	}
	return d.finishCreateTask(ctx, ev, sess, domain.NormalizePhone(ev.Payload))
}

// isCancel recognizes the cancel token case-insensitively, with or without
// the leading slash.
func isCancel(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "/cancel" || t == "cancel"
}

// ─── Menus & Help ───────────────────────────────────────────────────────────

func (d *Driver) menu(role domain.Role, text string) domain.Result {
	return domain.Result{Kind: domain.ResultMenu, Text: text, Actions: menuActions(role)}
}

func menuActions(role domain.Role) []string {
	switch role {
	case domain.RoleDeveloper:
		return []string{"dev_list_tasks", "dev_create_tz", "dev_in_progress", "dev_completed"}
	case domain.RoleWorker:
		return []string{"worker_available_tz", "worker_decline", "worker_complete"}
	}
	return []string{"client_create_task", "client_edit_task", "client_delete_task", "client_view_progress"}
}

func welcomeText(role domain.Role) string {
	switch role {
	case domain.RoleDeveloper:
		return "Welcome! You are signed in as a developer."
	case domain.RoleWorker:
		return "Welcome! You are signed in as a worker."
	}
	return "Welcome! Use the menu to file a task."
}

func helpText(role domain.Role) string {
	var b strings.Builder
	b.WriteString("Available actions:\n\n")
	switch role {
	case domain.RoleDeveloper:
		b.WriteString("Developer actions:\n")
		b.WriteString("- List tasks: review newly filed tasks\n")
		b.WriteString("- Create spec: write a priced technical task\n")
		b.WriteString("- In progress: your tasks currently in work\n")
		b.WriteString("- Completed: your finished tasks\n")
	case domain.RoleWorker:
		b.WriteString("Worker actions:\n")
		b.WriteString("- Available specs: browse claimable technical tasks\n")
		b.WriteString("- Decline work: hand a claimed spec back\n")
		b.WriteString("- Complete work: finish a claimed spec\n")
	default:
		b.WriteString("Client actions:\n")
		b.WriteString("- Order a task: file a new work request\n")
		b.WriteString("- Edit task: change an existing request\n")
		b.WriteString("- Delete task: withdraw a request\n")
		b.WriteString("- View progress: check the status of your tasks\n")
	}
	b.WriteString("\nCommands:\n")
	b.WriteString("/start - begin\n")
	b.WriteString("/menu - show the menu\n")
	b.WriteString("/help - show this help\n")
	b.WriteString("/cancel - abort the current action")
	return b.String()
}

// failure maps an engine error to a user-visible result. The caller is
// responsible for clearing the session where required.
func failure(err error) domain.Result {
	kind := domain.FailureFor(err)
	switch kind {
	case domain.FailureNotFound:
		return domain.Fail(kind, "Not found.")
	case domain.FailureDuplicate:
		return domain.Fail(kind, "A technical task already exists for this task.")
	case domain.FailureUnavailable:
		return domain.Fail(kind, "This spec is no longer available. Another worker may have taken it.")
	case domain.FailureForbidden:
		return domain.Fail(kind, "You cannot perform this action.")
	case domain.FailureAlreadyDeleted:
		return domain.Fail(kind, "This task is already deleted.")
	}
	return domain.Fail(domain.FailureStorage, "Something went wrong. Please try again later.")
}

// shorten trims a description for list display.
func shorten(text string) string {
	const max = 30
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
