package task

import (
	"fmt"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

// CreateFromTemplate materializes a new Active task instance from a
// template, or reports why it may not be created.
//
// The de-duplication guard runs first: if any existing instance for the
// template is still open, ErrDuplicateActive is returned. This is the
// idempotency anchor for the orchestrator; re-processing the same window
// hits this guard instead of creating a second instance.
func CreateFromTemplate(tmpl *model.TaskTemplate, spot *model.Spot, dueAt time.Time, existing []model.TaskInstance, assignedTo *int64) (*model.TaskInstance, error) {
	for i := range existing {
		if existing[i].Status.IsOpen() {
			return nil, ErrDuplicateActive
		}
	}

	if tmpl.IsDeleted {
		return nil, fmt.Errorf("%w: template %d is deleted", ErrValidation, tmpl.ID)
	}
	if spot == nil || spot.IsDeleted {
		return nil, fmt.Errorf("%w: spot for template %d", ErrNotFound, tmpl.ID)
	}
	if spot.ID != tmpl.SpotID {
		return nil, fmt.Errorf("%w: spot %d does not own template %d", ErrValidation, spot.ID, tmpl.ID)
	}

	templateID := tmpl.ID
	return &model.TaskInstance{
		FamilyID:   tmpl.FamilyID,
		SpotID:     tmpl.SpotID,
		TemplateID: &templateID,
		Title:      tmpl.Title,
		Points:     tmpl.Points,
		Status:     model.StatusActive,
		DueAt:      dueAt.UTC(),
		AssignedTo: assignedTo, // pre-assignment does not change status
	}, nil
}
