package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/database"
	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/mood"
	"github.com/av-mamzikov/family-task-manager/internal/schedule"
	"github.com/av-mamzikov/family-task-manager/internal/store"
)

type testEnv struct {
	db           *sql.DB
	families     *store.FamilyStore
	members      *store.FamilyMemberStore
	spots        *store.SpotStore
	templates    *store.TemplateStore
	tasks        *store.TaskStore
	events       *store.EventStore
	orchestrator *Orchestrator
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		db:        db,
		families:  store.NewFamilyStore(db),
		members:   store.NewFamilyMemberStore(db),
		spots:     store.NewSpotStore(db),
		templates: store.NewTemplateStore(db),
		tasks:     store.NewTaskStore(db),
		events:    store.NewEventStore(db),
	}
	moodRecalc := mood.NewRecalculator(
		mood.NewTaskPressureCalculator(env.tasks), env.spots, env.events, logger)
	env.orchestrator = NewOrchestrator(env.templates, env.spots, env.tasks, env.members,
		env.events, moodRecalc, logger)
	return env
}

// seedWeekly creates a family in Europe/Moscow with two members, one spot,
// and a weekly Monday 09:00 template on that spot.
func (e *testEnv) seedWeekly(t *testing.T) (familyID, spotID, templateID, aliceID, bobID int64) {
	t.Helper()

	family, err := e.families.Create("Ivanovs", "Europe/Moscow")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	alice, err := e.members.Create(family.ID, 100, "Alice", model.RoleAdult)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	bob, err := e.members.Create(family.ID, 101, "Bob", model.RoleChild)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	spot, err := e.spots.Create(family.ID, "pet", "Murzik")
	if err != nil {
		t.Fatalf("create spot: %v", err)
	}
	if err := e.spots.SetResponsibleMembers(spot.ID, []int64{alice.ID, bob.ID}); err != nil {
		t.Fatalf("set spot members: %v", err)
	}

	dow := time.Monday
	tmpl, err := e.templates.Create(family.ID, spot.ID, "Feed the cat", 5,
		schedule.Schedule{
			Kind:      schedule.Weekly,
			TimeOfDay: schedule.TimeOfDay{Hour: 9},
			DayOfWeek: &dow,
		},
		time.Hour, nil)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return family.ID, spot.ID, tmpl.ID, alice.ID, bob.ID
}

func TestProcessMaterializesWeeklyTemplate(t *testing.T) {
	env := setupEnv(t)
	familyID, spotID, templateID, aliceID, _ := env.seedWeekly(t)

	// 2026-01-05 is a Monday; 09:00 Moscow is 06:00 UTC.
	from := time.Date(2026, 1, 5, 5, 30, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	created, err := env.orchestrator.Process(context.Background(), from, to)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	open, err := env.tasks.ListOpenByTemplate(templateID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open instances = %d, want 1", len(open))
	}

	inst := open[0]
	if inst.FamilyID != familyID || inst.SpotID != spotID {
		t.Errorf("instance belongs to family %d spot %d", inst.FamilyID, inst.SpotID)
	}
	// Trigger 06:00 UTC plus the one hour due duration.
	wantDue := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)
	if !inst.DueAt.Equal(wantDue) {
		t.Errorf("due_at = %v, want %v", inst.DueAt, wantDue)
	}
	// Both members tie on never-assigned; the smaller id wins.
	if inst.AssignedTo == nil || *inst.AssignedTo != aliceID {
		t.Errorf("assigned_to = %v, want %d", inst.AssignedTo, aliceID)
	}
}

func TestProcessIsIdempotentForSameWindow(t *testing.T) {
	env := setupEnv(t)
	_, _, templateID, _, _ := env.seedWeekly(t)

	from := time.Date(2026, 1, 5, 5, 30, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := env.orchestrator.Process(context.Background(), from, to); err != nil {
			t.Fatalf("process #%d: %v", i+1, err)
		}
	}

	open, err := env.tasks.ListOpenByTemplate(templateID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open instances = %d after re-processing, want 1", len(open))
	}
}

func TestProcessSkipsWindowWithoutTrigger(t *testing.T) {
	env := setupEnv(t)
	env.seedWeekly(t)

	// Tuesday: the weekly Monday template stays quiet.
	from := time.Date(2026, 1, 6, 5, 30, 0, 0, time.UTC)
	created, err := env.orchestrator.Process(context.Background(), from, from.Add(time.Hour))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0", created)
	}
}

func TestProcessSkipsDeletedSpot(t *testing.T) {
	env := setupEnv(t)
	_, spotID, templateID, _, _ := env.seedWeekly(t)

	if err := env.spots.Delete(spotID); err != nil {
		t.Fatalf("delete spot: %v", err)
	}

	from := time.Date(2026, 1, 5, 5, 30, 0, 0, time.UTC)
	created, err := env.orchestrator.Process(context.Background(), from, from.Add(time.Hour))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d for deleted spot, want 0", created)
	}

	open, err := env.tasks.ListOpenByTemplate(templateID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("open instances = %d, want 0", len(open))
	}
}

func TestProcessRotatesAssignment(t *testing.T) {
	env := setupEnv(t)
	_, _, templateID, aliceID, bobID := env.seedWeekly(t)

	from := time.Date(2026, 1, 5, 5, 30, 0, 0, time.UTC)
	if _, err := env.orchestrator.Process(context.Background(), from, from.Add(time.Hour)); err != nil {
		t.Fatalf("process: %v", err)
	}

	open, err := env.tasks.ListOpenByTemplate(templateID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 || open[0].AssignedTo == nil || *open[0].AssignedTo != aliceID {
		t.Fatalf("first instance not assigned to alice: %+v", open)
	}

	// Close the first instance, then materialize the following Monday.
	inst := open[0]
	now := time.Now().UTC()
	inst.Status = model.StatusCompleted
	inst.CompletedAt = &now
	if err := env.tasks.UpdateWithVersion(&inst); err != nil {
		t.Fatalf("complete: %v", err)
	}

	nextMonday := time.Date(2026, 1, 12, 5, 30, 0, 0, time.UTC)
	if _, err := env.orchestrator.Process(context.Background(), nextMonday, nextMonday.Add(time.Hour)); err != nil {
		t.Fatalf("process next week: %v", err)
	}

	open, err = env.tasks.ListOpenByTemplate(templateID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 || open[0].AssignedTo == nil || *open[0].AssignedTo != bobID {
		t.Fatalf("second instance should rotate to bob, got %+v", open)
	}
}

func TestProcessInvalidWindow(t *testing.T) {
	env := setupEnv(t)
	at := time.Date(2026, 1, 5, 6, 0, 0, 0, time.UTC)

	if _, err := env.orchestrator.Process(context.Background(), at, at); err == nil {
		t.Fatal("empty window accepted")
	}
	if _, err := env.orchestrator.Process(context.Background(), at.Add(time.Hour), at); err == nil {
		t.Fatal("inverted window accepted")
	}
}

func TestProcessEmitsCreationEvent(t *testing.T) {
	env := setupEnv(t)
	env.seedWeekly(t)

	from := time.Date(2026, 1, 5, 5, 30, 0, 0, time.UTC)
	if _, err := env.orchestrator.Process(context.Background(), from, from.Add(time.Hour)); err != nil {
		t.Fatalf("process: %v", err)
	}

	pending, err := env.events.ListUndispatched(10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}

	var found bool
	for _, e := range pending {
		if e.Entity == model.EntityTask && e.Action == model.ActionCreated {
			found = true
		}
	}
	if !found {
		t.Fatal("no task created event in outbox")
	}
}
