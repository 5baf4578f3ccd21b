package model

import "time"

// Role controls what a family member is allowed to administer. The task
// lifecycle itself only distinguishes members by id; roles matter to the
// outer API surface.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAdult Role = "adult"
	RoleChild Role = "child"
)

type Family struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Timezone           string    `json:"timezone"` // IANA identifier, e.g. "Europe/Moscow"
	LeaderboardEnabled bool      `json:"leaderboard_enabled"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// FamilyMember is soft-deactivated via IsActive, never hard-deleted, so
// completed task history keeps valid member references.
type FamilyMember struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Points    int       `json:"points"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
