package model

import "time"

// Spot is a chore target (pet, plant, room) owning tasks and a derived
// mood score.
type Spot struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	MoodScore int       `json:"mood_score"` // 0-100
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ResponsibleMemberIDs is the set of members eligible for
	// auto-assignment on this spot's tasks. Loaded from spot_members.
	ResponsibleMemberIDs []int64 `json:"responsible_member_ids"`
}
