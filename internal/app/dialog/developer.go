package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/qamqor-studio/qamqor/internal/app/session"
	"github.com/qamqor-studio/qamqor/internal/domain"
)

// Developer flows: browse new tasks, write specs (description → payment),
// review own in-progress and completed work.

const (
	repromptPayment = "Enter a valid amount, digits only.\nFor example: 15000"
	promptPayment   = "Enter the payment amount.\nDigits only, for example: 15000"
)

func (d *Driver) developerAction(ctx context.Context, ev domain.Event, verb, id string) domain.Result {
	switch verb {
	case "dev_list_tasks":
		return d.listNewTasks(ctx, "New tasks:")
	case "dev_create_tz":
		return d.listNewTasks(ctx, "Choose a task to write a spec for:")
	case "dev_in_progress":
		return d.listDeveloperTasks(ctx, ev, domain.TaskInProgress, "Your tasks in progress:")
	case "dev_completed":
		return d.listDeveloperTasks(ctx, ev, domain.TaskCompleted, "Your completed tasks:")
	case "create_tz", "take_task":
		// take_task is a legacy alias for create_tz; both start spec entry.
		return d.startCreateSpec(ctx, ev, id)
	}
	return domain.Fail(domain.FailureUnknownAction, "Unknown action.")
}

func (d *Driver) listNewTasks(ctx context.Context, text string) domain.Result {
	tasks, err := d.engine.ListTasksByStatus(ctx, domain.TaskNew)
	if err != nil {
		return failure(err)
	}
	if len(tasks) == 0 {
		return domain.Confirm("No new tasks right now.")
	}
	return taskList(text, tasks, func(t domain.Task) []string {
		return []string{"create_tz:" + t.ID, "task_history:" + t.ID}
	}, "cancel_tz")
}

func (d *Driver) listDeveloperTasks(ctx context.Context, ev domain.Event, status domain.TaskStatus, text string) domain.Result {
	tasks, err := d.engine.TasksForDeveloper(ctx, ev.Actor(), status)
	if err != nil {
		return failure(err)
	}
	if len(tasks) == 0 {
		return domain.Confirm("Nothing here yet.")
	}

	items := make([]domain.ListItem, 0, len(tasks))
	for _, t := range tasks {
		detail := taskDetail(t)
		// Join the spec summary when one exists.
		if spec, err := d.engine.SpecForTask(ctx, t.ID); err == nil {
			detail += fmt.Sprintf("; spec: %s, payment: %d", shorten(spec.Description), spec.Payment)
		} else if !errors.Is(err, domain.ErrSpecNotFound) {
			return failure(err)
		}
		items = append(items, domain.ListItem{
			ID:      t.ID,
			Title:   shorten(t.Description),
			Detail:  detail,
			Actions: []string{"task_history:" + t.ID},
		})
	}
	return domain.Result{Kind: domain.ResultList, Text: text, Items: items}
}

func (d *Driver) startCreateSpec(ctx context.Context, ev domain.Event, taskID string) domain.Result {
	task, err := d.engine.GetTask(ctx, taskID)
	if err != nil {
		return failure(err)
	}
	if task.IsTerminal() {
		return domain.Fail(domain.FailureForbidden, "A completed or deleted task cannot take a spec.")
	}
	if _, err := d.engine.SpecForTask(ctx, taskID); err == nil {
		return failure(domain.ErrSpecExists)
	} else if !errors.Is(err, domain.ErrSpecNotFound) {
		return failure(err)
	}

	d.sessions.Put(ev.UserID, session.Session{Step: session.StepSpecDescription, TaskID: taskID})
	return domain.Prompt("Write the technical task description.\n\nOriginal task:\n" +
		task.Description + "\n\nSend cancel to abort.")
}

func (d *Driver) advanceSpecDescription(ev domain.Event, sess session.Session, text string) domain.Result {
	description, ok := domain.ValidDescription(text)
	if !ok {
		return domain.Prompt(repromptDescription)
	}
	sess.SpecDescription = description
	sess.Step = session.StepSpecPayment
	d.sessions.Put(ev.UserID, sess)
	return domain.Prompt(promptPayment)
}

func (d *Driver) advanceSpecPayment(ctx context.Context, ev domain.Event, sess session.Session, text string) domain.Result {
	payment, ok := domain.ParsePayment(text)
	if !ok {
		return domain.Prompt(repromptPayment)
	}

	d.sessions.Clear(ev.UserID)
	_, err := d.engine.CreateTechnicalTask(ctx, sess.TaskID, sess.SpecDescription, payment, ev.Actor())
	if err != nil {
		return failure(err)
	}
	return domain.Confirm("Spec created; the task is now in progress.")
}
