package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/database"
	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/schedule"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture is the minimal object graph most store tests need: one family
// with two members, a spot, and a daily template on that spot.
type fixture struct {
	family   *model.Family
	alice    *model.FamilyMember
	bob      *model.FamilyMember
	spot     *model.Spot
	template *model.TaskTemplate
}

func setupFixture(t *testing.T, db *sql.DB) fixture {
	t.Helper()

	family, err := NewFamilyStore(db).Create("Ivanovs", "Europe/Moscow")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}

	members := NewFamilyMemberStore(db)
	alice, err := members.Create(family.ID, 100, "Alice", model.RoleAdult)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	bob, err := members.Create(family.ID, 101, "Bob", model.RoleChild)
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	spot, err := NewSpotStore(db).Create(family.ID, "pet", "Murzik")
	if err != nil {
		t.Fatalf("create spot: %v", err)
	}

	tmpl, err := NewTemplateStore(db).Create(family.ID, spot.ID, "Feed the cat", 5,
		schedule.Schedule{Kind: schedule.Daily, TimeOfDay: schedule.TimeOfDay{Hour: 9}},
		time.Hour, &alice.ID)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	return fixture{family: family, alice: alice, bob: bob, spot: spot, template: tmpl}
}

func newInstance(f fixture, dueAt time.Time) *model.TaskInstance {
	templateID := f.template.ID
	return &model.TaskInstance{
		FamilyID:   f.family.ID,
		SpotID:     f.spot.ID,
		TemplateID: &templateID,
		Title:      f.template.Title,
		Points:     f.template.Points,
		Status:     model.StatusActive,
		DueAt:      dueAt,
	}
}
