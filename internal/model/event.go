package model

import "time"

// Event is an outbox row: an append-only record of a domain state change,
// drained by the dispatcher and broadcast to connected clients. Delivery
// is at-least-once; consumers deduplicate by ID.
type Event struct {
	ID           string         `json:"id"` // uuid
	FamilyID     int64          `json:"family_id"`
	Entity       string         `json:"entity"`
	Action       string         `json:"action"`
	EntityID     int64          `json:"entity_id,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	DispatchedAt *time.Time     `json:"dispatched_at,omitempty"`
}

// Event entities/actions produced by the core.
const (
	EntityTask = "task"
	EntitySpot = "spot"

	ActionCreated     = "created"
	ActionTaken       = "taken"
	ActionCompleted   = "completed"
	ActionReleased    = "released"
	ActionDeleted     = "deleted"
	ActionDueSoon     = "due_soon"
	ActionOverdue     = "overdue_summary"
	ActionMoodChanged = "mood_changed"
)
