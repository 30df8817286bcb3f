package dialog

import (
	"context"
	"fmt"

	"github.com/qamqor-studio/qamqor/internal/app/session"
	"github.com/qamqor-studio/qamqor/internal/domain"
)

// Client flows: create (description → contact), edit (new description),
// delete, and progress listing. Ownership is checked on every mutation of
// an existing task.

const (
	promptDescription = "Describe your task.\n\n" +
		"- At least 10 characters\n" +
		"- The more detail the better\n" +
		"- Send cancel to abort"
	promptContact = "Send your contact.\n\n" +
		"- Phone number, e.g. +79991234567\n" +
		"- Or an email address, e.g. name@example.com\n" +
		"- Send cancel to abort"
	repromptDescription = "The description must be at least 10 characters.\n" +
		"Try again, or send cancel to abort."
	repromptContact = "That does not look like a phone number or an email.\n\n" +
		"- Email: name@example.com\n" +
		"- Phone: +79991234567\n\n" +
		"Try again, or send cancel to abort."
)

func (d *Driver) startCreateTask(ev domain.Event) domain.Result {
	d.sessions.Put(ev.UserID, session.Session{Step: session.StepDescription})
	return domain.Prompt(promptDescription)
}

func (d *Driver) advanceDescription(ev domain.Event, sess session.Session, text string) domain.Result {
	description, ok := domain.ValidDescription(text)
	if !ok {
		return domain.Prompt(repromptDescription)
	}
	sess.Description = description
	sess.Step = session.StepContact
	d.sessions.Put(ev.UserID, sess)
	return domain.Prompt(promptContact)
}

func (d *Driver) advanceContact(ctx context.Context, ev domain.Event, sess session.Session, text string) domain.Result {
	contact, ok := domain.NormalizeContact(text)
	if !ok {
		return domain.Prompt(repromptContact)
	}
	return d.finishCreateTask(ctx, ev, sess, contact)
}

func (d *Driver) finishCreateTask(ctx context.Context, ev domain.Event, sess session.Session, contact string) domain.Result {
	d.sessions.Clear(ev.UserID)
	_, err := d.engine.CreateTask(ctx, ev.UserID, ev.Actor(), sess.Description, contact)
	if err != nil {
		return failure(err)
	}
	return domain.Confirm("Your task has been filed. A developer will review it shortly.")
}

func (d *Driver) listEditableTasks(ctx context.Context, ev domain.Event) domain.Result {
	tasks, err := d.engine.ActiveTasksForClient(ctx, ev.UserID)
	if err != nil {
		return failure(err)
	}
	if len(tasks) == 0 {
		return domain.Confirm("You have no active tasks to edit.")
	}
	return taskList("Choose a task to edit:", tasks, func(t domain.Task) []string {
		return []string{"edit_task:" + t.ID}
	}, "cancel_edit")
}

func (d *Driver) listDeletableTasks(ctx context.Context, ev domain.Event) domain.Result {
	tasks, err := d.engine.ActiveTasksForClient(ctx, ev.UserID)
	if err != nil {
		return failure(err)
	}
	if len(tasks) == 0 {
		return domain.Confirm("You have no active tasks to delete.")
	}
	return taskList("Choose a task to delete:", tasks, func(t domain.Task) []string {
		return []string{"delete_task:" + t.ID}
	}, "cancel_delete")
}

func (d *Driver) viewProgress(ctx context.Context, ev domain.Event) domain.Result {
	tasks, err := d.engine.TasksForClient(ctx, ev.UserID)
	if err != nil {
		return failure(err)
	}
	if len(tasks) == 0 {
		return domain.Confirm("You have no tasks yet.")
	}
	return taskList("Your tasks:", tasks, func(t domain.Task) []string {
		return []string{"task_history:" + t.ID, "edit_task:" + t.ID}
	}, "back_to_menu")
}

func (d *Driver) startEditTask(ctx context.Context, ev domain.Event, taskID string) domain.Result {
	task, err := d.engine.GetTask(ctx, taskID)
	if err != nil {
		return failure(err)
	}
	if task.ClientID != ev.UserID {
		return domain.Fail(domain.FailureForbidden, "You may only edit your own tasks.")
	}
	if task.IsTerminal() {
		return domain.Fail(domain.FailureForbidden, "A completed or deleted task cannot be edited.")
	}

	d.sessions.Put(ev.UserID, session.Session{Step: session.StepNewDescription, TaskID: taskID})
	return domain.Prompt("Send the new task description.\n\nCurrent description:\n" +
		task.Description + "\n\nSend cancel to abort.")
}

func (d *Driver) advanceNewDescription(ctx context.Context, ev domain.Event, sess session.Session, text string) domain.Result {
	description, ok := domain.ValidDescription(text)
	if !ok {
		return domain.Prompt(repromptDescription)
	}

	d.sessions.Clear(ev.UserID)
	_, err := d.engine.UpdateTask(ctx, sess.TaskID, map[string]string{"description": description}, ev.Actor())
	if err != nil {
		return failure(err)
	}
	return domain.Confirm("Task updated.")
}

func (d *Driver) deleteTask(ctx context.Context, ev domain.Event, taskID string) domain.Result {
	task, err := d.engine.GetTask(ctx, taskID)
	if err != nil {
		return failure(err)
	}
	if task.ClientID != ev.UserID {
		return domain.Fail(domain.FailureForbidden, "You may only delete your own tasks.")
	}

	if err := d.engine.DeleteTask(ctx, taskID, ev.Actor()); err != nil {
		return failure(err)
	}
	return domain.Confirm("Task deleted.")
}

// taskList renders tasks as list items with per-item action tokens.
func taskList(text string, tasks []domain.Task, actions func(domain.Task) []string, extra ...string) domain.Result {
	items := make([]domain.ListItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, domain.ListItem{
			ID:      t.ID,
			Title:   shorten(t.Description),
			Detail:  taskDetail(t),
			Actions: actions(t),
		})
	}
	return domain.Result{Kind: domain.ResultList, Text: text, Items: items, Actions: extra}
}

func taskDetail(t domain.Task) string {
	detail := fmt.Sprintf("status: %s, contact: %s", t.Status, t.Contact)
	if t.Developer != "" {
		detail += ", developer: " + t.Developer
	}
	return detail
}
