package store

import (
	"testing"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/schedule"
)

func TestTemplateScheduleRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	f := setupFixture(t, db)
	templates := NewTemplateStore(db)

	dow := time.Monday
	tmpl, err := templates.Create(f.family.ID, f.spot.ID, "Vacuum", 10,
		schedule.Schedule{
			Kind:      schedule.Weekly,
			TimeOfDay: schedule.TimeOfDay{Hour: 18, Minute: 30},
			DayOfWeek: &dow,
		},
		2*time.Hour, nil)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	got, err := templates.GetByID(tmpl.ID)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if got.Schedule.Kind != schedule.Weekly {
		t.Errorf("kind = %q, want weekly", got.Schedule.Kind)
	}
	if got.Schedule.TimeOfDay.String() != "18:30" {
		t.Errorf("time_of_day = %s, want 18:30", got.Schedule.TimeOfDay)
	}
	if got.Schedule.DayOfWeek == nil || *got.Schedule.DayOfWeek != time.Monday {
		t.Errorf("day_of_week = %v, want Monday", got.Schedule.DayOfWeek)
	}
	if got.DueDuration != 2*time.Hour {
		t.Errorf("due_duration = %v, want 2h", got.DueDuration)
	}
}

func TestListScheduledFilters(t *testing.T) {
	db := setupTestDB(t)
	f := setupFixture(t, db)
	templates := NewTemplateStore(db)

	manual, err := templates.Create(f.family.ID, f.spot.ID, "On demand", 1,
		schedule.Schedule{Kind: schedule.Manual}, 0, nil)
	if err != nil {
		t.Fatalf("create manual template: %v", err)
	}
	deleted, err := templates.Create(f.family.ID, f.spot.ID, "Old chore", 1,
		schedule.Schedule{Kind: schedule.Daily, TimeOfDay: schedule.TimeOfDay{Hour: 8}}, 0, nil)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if err := templates.Delete(deleted.ID); err != nil {
		t.Fatalf("delete template: %v", err)
	}

	scheduled, err := templates.ListScheduled()
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}

	// Only the fixture's daily template qualifies.
	if len(scheduled) != 1 {
		t.Fatalf("got %d scheduled templates, want 1", len(scheduled))
	}
	if scheduled[0].ID == manual.ID || scheduled[0].ID == deleted.ID {
		t.Fatalf("unexpected template %d in scheduled set", scheduled[0].ID)
	}
	if scheduled[0].FamilyTimezone != "Europe/Moscow" {
		t.Errorf("timezone = %q, want Europe/Moscow", scheduled[0].FamilyTimezone)
	}
}

func TestListScheduledSkipsInactiveFamilies(t *testing.T) {
	db := setupTestDB(t)
	f := setupFixture(t, db)

	if err := NewFamilyStore(db).Deactivate(f.family.ID); err != nil {
		t.Fatalf("deactivate family: %v", err)
	}

	scheduled, err := NewTemplateStore(db).ListScheduled()
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(scheduled) != 0 {
		t.Fatalf("got %d scheduled templates for inactive family, want 0", len(scheduled))
	}
}

func TestTemplateResponsibleMembers(t *testing.T) {
	db := setupTestDB(t)
	f := setupFixture(t, db)
	templates := NewTemplateStore(db)

	if err := templates.SetResponsibleMembers(f.template.ID, []int64{f.bob.ID, f.alice.ID}); err != nil {
		t.Fatalf("set members: %v", err)
	}

	got, err := templates.GetByID(f.template.ID)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if len(got.ResponsibleMemberIDs) != 2 {
		t.Fatalf("got %d responsible members, want 2", len(got.ResponsibleMemberIDs))
	}
	// Loaded in id order regardless of insert order.
	if got.ResponsibleMemberIDs[0] != f.alice.ID {
		t.Errorf("first member = %d, want %d", got.ResponsibleMemberIDs[0], f.alice.ID)
	}
}
