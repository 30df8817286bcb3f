package dialog

import (
	"context"
	"fmt"

	"github.com/qamqor-studio/qamqor/internal/domain"
)

// Worker flows: browse available specs, claim, decline, complete. Claim
// races are expected; a lost race surfaces as Unavailable and the worker
// re-lists availability rather than retrying the same claim.

func (d *Driver) workerAction(ctx context.Context, ev domain.Event, verb, id string) domain.Result {
	switch verb {
	case "worker_available_tz":
		return d.listAvailableSpecs(ctx)
	case "worker_decline":
		return d.listHeldSpecs(ctx, ev, "decline_tz", "Your active specs. Choose one to decline:")
	case "worker_complete":
		return d.listHeldSpecs(ctx, ev, "complete_tz", "Your active specs. Choose one to complete:")
	case "take_tz":
		return d.claimSpec(ctx, ev, id)
	case "decline_tz":
		return d.declineSpec(ctx, ev, id)
	case "complete_tz":
		return d.completeSpec(ctx, ev, id)
	}
	return domain.Fail(domain.FailureUnknownAction, "Unknown action.")
}

func (d *Driver) listAvailableSpecs(ctx context.Context) domain.Result {
	specs, err := d.engine.AvailableSpecs(ctx)
	if err != nil {
		return failure(err)
	}
	if len(specs) == 0 {
		return domain.Result{
			Kind:    domain.ResultConfirmation,
			Text:    "No specs are available right now. Check back later.",
			Actions: []string{"worker_available_tz"},
		}
	}
	return d.specList(ctx, "Available specs:", specs, func(z domain.TechnicalTask) []string {
		return []string{"take_tz:" + z.ID, "tz_history:" + z.ID}
	})
}

func (d *Driver) listHeldSpecs(ctx context.Context, ev domain.Event, verb, text string) domain.Result {
	specs, err := d.engine.ActiveSpecsForWorker(ctx, ev.Actor())
	if err != nil {
		return failure(err)
	}
	if len(specs) == 0 {
		return domain.Result{
			Kind:    domain.ResultConfirmation,
			Text:    "You hold no active specs. Take a new one from the available list.",
			Actions: []string{"worker_available_tz"},
		}
	}
	return d.specList(ctx, text, specs, func(z domain.TechnicalTask) []string {
		return []string{verb + ":" + z.ID}
	})
}

func (d *Driver) claimSpec(ctx context.Context, ev domain.Event, specID string) domain.Result {
	spec, err := d.engine.Claim(ctx, specID, ev.Actor())
	if err != nil {
		return failure(err)
	}
	return domain.Result{
		Kind: domain.ResultConfirmation,
		Text: "The spec is yours. Complete it when done, or decline it if you cannot.",
		Actions: []string{
			"complete_tz:" + spec.ID,
			"decline_tz:" + spec.ID,
		},
	}
}

func (d *Driver) declineSpec(ctx context.Context, ev domain.Event, specID string) domain.Result {
	if _, err := d.engine.Decline(ctx, specID, ev.Actor()); err != nil {
		return failure(err)
	}
	return domain.Result{
		Kind:    domain.ResultConfirmation,
		Text:    "You declined the spec. It is available to other workers again.",
		Actions: []string{"worker_available_tz"},
	}
}

func (d *Driver) completeSpec(ctx context.Context, ev domain.Event, specID string) domain.Result {
	if _, err := d.engine.Complete(ctx, specID, ev.Actor()); err != nil {
		return failure(err)
	}
	return domain.Result{
		Kind:    domain.ResultConfirmation,
		Text:    "Spec completed. Nice work. New specs are waiting in the available list.",
		Actions: []string{"worker_available_tz"},
	}
}

// specList renders specs as list items, joined with their parent task's
// description.
func (d *Driver) specList(ctx context.Context, text string, specs []domain.TechnicalTask, actions func(domain.TechnicalTask) []string) domain.Result {
	items := make([]domain.ListItem, 0, len(specs))
	for _, z := range specs {
		detail := fmt.Sprintf("payment: %d, developer: %s, status: %s", z.Payment, z.Developer, z.Status)
		if task, err := d.engine.GetTask(ctx, z.TaskID); err == nil {
			detail = "task: " + shorten(task.Description) + "; " + detail
		}
		items = append(items, domain.ListItem{
			ID:      z.ID,
			Title:   shorten(z.Description),
			Detail:  detail,
			Actions: actions(z),
		})
	}
	return domain.Result{Kind: domain.ResultList, Text: text, Items: items}
}
