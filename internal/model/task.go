package model

import "time"

// Status is the task instance lifecycle state. Completed and Deleted are
// terminal.
type Status string

const (
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDeleted    Status = "deleted"
)

// IsOpen reports whether the status counts against the one-open-instance-
// per-template invariant.
func (s Status) IsOpen() bool {
	return s == StatusActive || s == StatusInProgress
}

// TaskInstance is one concrete, assignable, completable unit of work.
// TemplateID is nil for ad hoc one-off tasks. Version backs optimistic
// concurrency on lifecycle updates.
type TaskInstance struct {
	ID          int64      `json:"id"`
	FamilyID    int64      `json:"family_id"`
	SpotID      int64      `json:"spot_id"`
	TemplateID  *int64     `json:"template_id"`
	Title       string     `json:"title"`
	Points      int        `json:"points"`
	Status      Status     `json:"status"`
	DueAt       time.Time  `json:"due_at"` // UTC
	AssignedTo  *int64     `json:"assigned_to"`
	CompletedAt *time.Time `json:"completed_at"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
