package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qamqor-studio/qamqor/internal/domain"
)

// History views compose the entity's audit trail into plain text lines.
// A task view embeds its spec summary and spec history when one exists.

func (d *Driver) taskHistory(ctx context.Context, taskID string) domain.Result {
	task, err := d.engine.GetTask(ctx, taskID)
	if err != nil {
		return failure(err)
	}
	records, err := d.engine.TaskHistory(ctx, taskID)
	if err != nil {
		return failure(err)
	}

	var b strings.Builder
	b.WriteString("Task history\n\n")
	fmt.Fprintf(&b, "Task: %s\nStatus: %s\nContact: %s\n\n", task.Description, task.Status, task.Contact)
	b.WriteString("Changes:\n")
	for _, rec := range records {
		writeHistoryLine(&b, string(rec.Action), rec.User, rec.Timestamp.Format("2006-01-02 15:04"))
	}

	spec, err := d.engine.SpecForTask(ctx, taskID)
	switch {
	case err == nil:
		fmt.Fprintf(&b, "\nTechnical task:\nDescription: %s\nPayment: %d\nDeveloper: %s\nWorker: %s\n\n",
			spec.Description, spec.Payment, spec.Developer, orUnassigned(spec.Worker))
		specRecords, err := d.engine.SpecHistory(ctx, spec.ID)
		if err != nil {
			return failure(err)
		}
		b.WriteString("Spec changes:\n")
		for _, rec := range specRecords {
			writeHistoryLine(&b, string(rec.Action), rec.User, rec.Timestamp.Format("2006-01-02 15:04"))
		}
	case errors.Is(err, domain.ErrSpecNotFound):
		// No spec yet; nothing to add.
	default:
		return failure(err)
	}

	return domain.Result{
		Kind:    domain.ResultConfirmation,
		Text:    b.String(),
		Actions: []string{"back_to_menu"},
	}
}

func (d *Driver) specHistory(ctx context.Context, specID string) domain.Result {
	spec, err := d.engine.GetSpec(ctx, specID)
	if err != nil {
		return failure(err)
	}
	task, err := d.engine.GetTask(ctx, spec.TaskID)
	if err != nil {
		return failure(err)
	}
	records, err := d.engine.SpecHistory(ctx, specID)
	if err != nil {
		return failure(err)
	}

	var b strings.Builder
	b.WriteString("Technical task history\n\n")
	fmt.Fprintf(&b, "Task: %s\nSpec: %s\nPayment: %d\nDeveloper: %s\nWorker: %s\nStatus: %s\n\n",
		task.Description, spec.Description, spec.Payment, spec.Developer, orUnassigned(spec.Worker), spec.Status)
	b.WriteString("Changes:\n")
	for _, rec := range records {
		writeHistoryLine(&b, string(rec.Action), rec.User, rec.Timestamp.Format("2006-01-02 15:04"))
	}

	return domain.Result{
		Kind:    domain.ResultConfirmation,
		Text:    b.String(),
		Actions: []string{"back_to_menu"},
	}
}

func writeHistoryLine(b *strings.Builder, action, user, at string) {
	fmt.Fprintf(b, "%s - %s (%s)\n", at, action, user)
}

func orUnassigned(worker string) string {
	if worker == "" {
		return "unassigned"
	}
	return worker
}
