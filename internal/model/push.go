package model

import "time"

// PushSubscription is a web-push endpoint registered by a family member's
// browser. MemberID is nil for household-shared devices (e.g. a kitchen
// tablet), which receive family-wide notifications only.
type PushSubscription struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	MemberID  *int64    `json:"member_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	CreatedAt time.Time `json:"created_at"`
}
