package model

import (
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/schedule"
)

// TaskTemplate is a recurring task definition. Templates only ever create
// task instances; they never mutate instances already materialized.
// Deletion is soft: the template stops producing instances, existing ones
// survive.
type TaskTemplate struct {
	ID          int64             `json:"id"`
	FamilyID    int64             `json:"family_id"`
	SpotID      int64             `json:"spot_id"`
	Title       string            `json:"title"`
	Points      int               `json:"points"`
	Schedule    schedule.Schedule `json:"schedule"`
	DueDuration time.Duration     `json:"due_duration"` // time to complete after trigger
	CreatedBy   *int64            `json:"created_by"`
	IsDeleted   bool              `json:"is_deleted"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// ResponsibleMemberIDs is the fallback assignment pool when the
	// owning spot has no responsible members of its own.
	ResponsibleMemberIDs []int64 `json:"responsible_member_ids"`
}

// ScheduledTemplate is the orchestrator's read model: a template joined
// with its owning family's timezone in a single query.
type ScheduledTemplate struct {
	TaskTemplate
	FamilyTimezone string `json:"family_timezone"`
}
