package task

import (
	"errors"
	"testing"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

func testTemplate() *model.TaskTemplate {
	return &model.TaskTemplate{
		ID:       10,
		FamilyID: 1,
		SpotID:   20,
		Title:    "Water the ficus",
		Points:   3,
	}
}

func testSpot() *model.Spot {
	return &model.Spot{ID: 20, FamilyID: 1, Type: "plant", Name: "Ficus"}
}

func TestCreateFromTemplate(t *testing.T) {
	dueAt := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	member := int64(7)

	inst, err := CreateFromTemplate(testTemplate(), testSpot(), dueAt, nil, &member)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if inst.Status != model.StatusActive {
		t.Errorf("status = %q, want active", inst.Status)
	}
	if inst.TemplateID == nil || *inst.TemplateID != 10 {
		t.Errorf("template_id = %v, want 10", inst.TemplateID)
	}
	if !inst.DueAt.Equal(dueAt) {
		t.Errorf("due_at = %v, want %v", inst.DueAt, dueAt)
	}
	if inst.Title != "Water the ficus" || inst.Points != 3 {
		t.Errorf("title/points not copied from template: %q %d", inst.Title, inst.Points)
	}
	// Pre-assignment keeps the task claimable, it does not start it.
	if inst.AssignedTo == nil || *inst.AssignedTo != 7 {
		t.Errorf("assigned_to = %v, want 7", inst.AssignedTo)
	}
}

func TestCreateFromTemplateDeduplicates(t *testing.T) {
	open := []model.TaskInstance{{ID: 99, Status: model.StatusInProgress}}

	_, err := CreateFromTemplate(testTemplate(), testSpot(), time.Now(), open, nil)
	if !errors.Is(err, ErrDuplicateActive) {
		t.Fatalf("err = %v, want ErrDuplicateActive", err)
	}
}

func TestCreateFromTemplateIgnoresClosedInstances(t *testing.T) {
	closed := []model.TaskInstance{
		{ID: 98, Status: model.StatusCompleted},
		{ID: 99, Status: model.StatusDeleted},
	}

	if _, err := CreateFromTemplate(testTemplate(), testSpot(), time.Now(), closed, nil); err != nil {
		t.Fatalf("create with closed history: %v", err)
	}
}

func TestCreateFromDeletedTemplate(t *testing.T) {
	tmpl := testTemplate()
	tmpl.IsDeleted = true

	_, err := CreateFromTemplate(tmpl, testSpot(), time.Now(), nil, nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCreateFromTemplateSpotChecks(t *testing.T) {
	if _, err := CreateFromTemplate(testTemplate(), nil, time.Now(), nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("nil spot: err = %v, want not found", err)
	}

	deleted := testSpot()
	deleted.IsDeleted = true
	if _, err := CreateFromTemplate(testTemplate(), deleted, time.Now(), nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted spot: err = %v, want not found", err)
	}

	wrong := testSpot()
	wrong.ID = 21
	if _, err := CreateFromTemplate(testTemplate(), wrong, time.Now(), nil, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("foreign spot: err = %v, want validation error", err)
	}
}
