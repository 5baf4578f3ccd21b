package store

import (
	"database/sql"
	"fmt"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, family_id, member_id, endpoint, p256dh_key, auth_key, created_at`

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	var memberID sql.NullInt64

	err := scanner.Scan(&sub.ID, &sub.FamilyID, &memberID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}

	if memberID.Valid {
		sub.MemberID = &memberID.Int64
	}
	return &sub, nil
}

// Upsert stores a subscription, replacing keys for an already-registered
// endpoint.
func (s *PushStore) Upsert(familyID int64, memberID *int64, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	var mID sql.NullInt64
	if memberID != nil {
		mID = sql.NullInt64{Int64: *memberID, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (family_id, member_id, endpoint, p256dh_key, auth_key)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET family_id = excluded.family_id, member_id = excluded.member_id, p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		familyID, mID, endpoint, p256dh, auth,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	return scanSubscription(row)
}

func (s *PushStore) ListByFamily(familyID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT `+pushCols+` FROM push_subscriptions WHERE family_id = ? ORDER BY id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// DeleteByEndpoint removes a subscription, used both for explicit
// unsubscribes and for pruning endpoints the push service reports expired.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}
