package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/qamqor-studio/qamqor/internal/domain"
	"github.com/qamqor-studio/qamqor/internal/infra/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("sqlite.Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(db)
}

func createTestTask(t *testing.T, svc *Service) domain.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), 100, "client100", "build a landing page", "client@example.com")
	if err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}
	return task
}

// ─── Task Lifecycle ─────────────────────────────────────────────────────────

func TestCreateTask(t *testing.T) {
	svc := newTestService(t)
	task := createTestTask(t, svc)

	if task.Status != domain.TaskNew {
		t.Errorf("Status = %q, want new", task.Status)
	}

	records, err := svc.TaskHistory(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("TaskHistory() error: %v", err)
	}
	if len(records) != 1 || records[0].Action != domain.TaskActionCreated || records[0].User != "client100" {
		t.Errorf("history = %+v, want single created entry by client100", records)
	}
}

func TestCreateTask_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, 100, "client100", "short", "client@example.com"); !errors.Is(err, domain.ErrBadDescription) {
		t.Errorf("short description error = %v, want ErrBadDescription", err)
	}
	if _, err := svc.CreateTask(ctx, 100, "client100", "build a landing page", "not a contact"); !errors.Is(err, domain.ErrBadContact) {
		t.Errorf("bad contact error = %v, want ErrBadContact", err)
	}
}

func TestUpdateTask_AllowList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	task := createTestTask(t, svc)

	got, err := svc.UpdateTask(ctx, task.ID, map[string]string{"description": "a fully reworded description"}, "client100")
	if err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	if got.Description != "a fully reworded description" {
		t.Errorf("Description = %q, update not applied", got.Description)
	}

	if _, err := svc.UpdateTask(ctx, task.ID, map[string]string{"payment": "999"}, "client100"); !errors.Is(err, domain.ErrInvalidField) {
		t.Errorf("off-list field error = %v, want ErrInvalidField", err)
	}
	if _, err := svc.UpdateTask(ctx, task.ID, map[string]string{"status": "bogus"}, "client100"); !errors.Is(err, domain.ErrInvalidField) {
		t.Errorf("bogus status error = %v, want ErrInvalidField", err)
	}
	if _, err := svc.UpdateTask(ctx, task.ID, nil, "client100"); !errors.Is(err, domain.ErrInvalidField) {
		t.Errorf("empty update error = %v, want ErrInvalidField", err)
	}

	records, _ := svc.TaskHistory(ctx, task.ID)
	if len(records) != 2 {
		t.Fatalf("history has %d entries, rejected updates must not append", len(records))
	}
	if records[1].Changes["description"] != "a fully reworded description" {
		t.Errorf("Changes = %v, want the changed field recorded", records[1].Changes)
	}
}

func TestDeleteTask_Twice(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	task := createTestTask(t, svc)

	if err := svc.DeleteTask(ctx, task.ID, "client100"); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}
	if err := svc.DeleteTask(ctx, task.ID, "client100"); !errors.Is(err, domain.ErrAlreadyDeleted) {
		t.Errorf("second DeleteTask() error = %v, want ErrAlreadyDeleted", err)
	}
}

// ─── Spec Lifecycle ─────────────────────────────────────────────────────────

func TestCreateTechnicalTask(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	task := createTestTask(t, svc)

	spec, err := svc.CreateTechnicalTask(ctx, task.ID, "implement per the attached brief", 15000, "dev1")
	if err != nil {
		t.Fatalf("CreateTechnicalTask() error: %v", err)
	}
	if spec.Payment != 15000 || spec.Developer != "dev1" || spec.Status != domain.SpecNew {
		t.Errorf("spec = %+v, want new spec by dev1 at 15000", spec)
	}

	gotTask, err := svc.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if gotTask.Status != domain.TaskInProgress || gotTask.Developer != "dev1" {
		t.Errorf("task = %+v, want in_progress owned by dev1", gotTask)
	}

	// One spec per task, ever.
	if _, err := svc.CreateTechnicalTask(ctx, task.ID, "a competing specification", 9000, "dev2"); !errors.Is(err, domain.ErrSpecExists) {
		t.Errorf("second spec error = %v, want ErrSpecExists", err)
	}
}

func TestCreateTechnicalTask_ClosedTask(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	task := createTestTask(t, svc)
	if err := svc.DeleteTask(ctx, task.ID, "client100"); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}

	if _, err := svc.CreateTechnicalTask(ctx, task.ID, "implement per the attached brief", 15000, "dev1"); !errors.Is(err, domain.ErrTaskClosed) {
		t.Fatalf("spec on deleted task error = %v, want ErrTaskClosed", err)
	}

	gotTask, err := svc.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if gotTask.Status != domain.TaskDeleted {
		t.Errorf("task Status = %q, deleted is terminal", gotTask.Status)
	}
}

func TestCreateTechnicalTask_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	task := createTestTask(t, svc)

	if _, err := svc.CreateTechnicalTask(ctx, task.ID, "short", 15000, "dev1"); !errors.Is(err, domain.ErrBadDescription) {
		t.Errorf("short description error = %v, want ErrBadDescription", err)
	}
	if _, err := svc.CreateTechnicalTask(ctx, task.ID, "implement per the attached brief", 0, "dev1"); !errors.Is(err, domain.ErrBadPayment) {
		t.Errorf("zero payment error = %v, want ErrBadPayment", err)
	}
}

func TestClaimDeclineClaim(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	task := createTestTask(t, svc)
	spec, err := svc.CreateTechnicalTask(ctx, task.ID, "implement per the attached brief", 15000, "dev1")
	if err != nil {
		t.Fatalf("CreateTechnicalTask() error: %v", err)
	}

	if _, err := svc.Claim(ctx, spec.ID, "worker1"); err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	if _, err := svc.Claim(ctx, spec.ID, "worker2"); !errors.Is(err, domain.ErrSpecTaken) {
		t.Errorf("second Claim() error = %v, want ErrSpecTaken", err)
	}
	if _, err := svc.Decline(ctx, spec.ID, "worker2"); !errors.Is(err, domain.ErrNotHolder) {
		t.Errorf("Decline() by stranger error = %v, want ErrNotHolder", err)
	}

	released, err := svc.Decline(ctx, spec.ID, "worker1")
	if err != nil {
		t.Fatalf("Decline() error: %v", err)
	}
	if !released.Available() {
		t.Errorf("spec = %+v, decline should return it to the pool", released)
	}

	// A declined spec is claimable by anyone, including another worker.
	if _, err := svc.Claim(ctx, spec.ID, "worker2"); err != nil {
		t.Fatalf("Claim() after decline error: %v", err)
	}

	records, err := svc.SpecHistory(ctx, spec.ID)
	if err != nil {
		t.Fatalf("SpecHistory() error: %v", err)
	}
	want := []domain.SpecAction{
		domain.SpecActionCreated,
		domain.SpecActionTaken,
		domain.SpecActionDeclined,
		domain.SpecActionTaken,
	}
	if len(records) != len(want) {
		t.Fatalf("history has %d entries, want %d", len(records), len(want))
	}
	for i, action := range want {
		if records[i].Action != action {
			t.Errorf("history[%d].Action = %q, want %q", i, records[i].Action, action)
		}
	}
}

func TestComplete_Cascade(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	task := createTestTask(t, svc)
	spec, err := svc.CreateTechnicalTask(ctx, task.ID, "implement per the attached brief", 15000, "dev1")
	if err != nil {
		t.Fatalf("CreateTechnicalTask() error: %v", err)
	}
	if _, err := svc.Claim(ctx, spec.ID, "worker1"); err != nil {
		t.Fatalf("Claim() error: %v", err)
	}

	done, err := svc.Complete(ctx, spec.ID, "worker1")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if done.Status != domain.SpecCompleted {
		t.Errorf("spec Status = %q, want completed", done.Status)
	}

	gotTask, _ := svc.GetTask(ctx, task.ID)
	if gotTask.Status != domain.TaskCompleted {
		t.Errorf("task Status = %q, want completed (cascade)", gotTask.Status)
	}

	taskHist, _ := svc.TaskHistory(ctx, task.ID)
	last := taskHist[len(taskHist)-1]
	if last.Action != domain.TaskActionWorkerCompleted || last.User != "worker1" {
		t.Errorf("last task history = %+v, want completed_by_worker by worker1", last)
	}
}

// ─── Listings ───────────────────────────────────────────────────────────────

func TestListings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	open := createTestTask(t, svc)
	gone := createTestTask(t, svc)
	if err := svc.DeleteTask(ctx, gone.ID, "client100"); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}

	active, err := svc.ActiveTasksForClient(ctx, 100)
	if err != nil {
		t.Fatalf("ActiveTasksForClient() error: %v", err)
	}
	if len(active) != 1 || active[0].ID != open.ID {
		t.Errorf("active = %d tasks, deleted one must be excluded", len(active))
	}

	all, err := svc.TasksForClient(ctx, 100)
	if err != nil {
		t.Fatalf("TasksForClient() error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d tasks, want 2", len(all))
	}

	spec, err := svc.CreateTechnicalTask(ctx, open.ID, "implement per the attached brief", 15000, "dev1")
	if err != nil {
		t.Fatalf("CreateTechnicalTask() error: %v", err)
	}

	devTasks, err := svc.TasksForDeveloper(ctx, "dev1", domain.TaskInProgress)
	if err != nil {
		t.Fatalf("TasksForDeveloper() error: %v", err)
	}
	if len(devTasks) != 1 || devTasks[0].ID != open.ID {
		t.Errorf("devTasks = %d, want the specced task", len(devTasks))
	}

	if _, err := svc.Claim(ctx, spec.ID, "worker1"); err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	available, err := svc.AvailableSpecs(ctx)
	if err != nil {
		t.Fatalf("AvailableSpecs() error: %v", err)
	}
	if len(available) != 0 {
		t.Errorf("available = %d specs, claimed one must be excluded", len(available))
	}
	held, err := svc.ActiveSpecsForWorker(ctx, "worker1")
	if err != nil {
		t.Fatalf("ActiveSpecsForWorker() error: %v", err)
	}
	if len(held) != 1 || held[0].ID != spec.ID {
		t.Errorf("held = %d specs, want worker1's claim", len(held))
	}
}
