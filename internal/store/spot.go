package store

import (
	"database/sql"
	"fmt"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

type SpotStore struct {
	db *sql.DB
}

func NewSpotStore(db *sql.DB) *SpotStore {
	return &SpotStore{db: db}
}

const spotCols = `id, family_id, type, name, mood_score, is_deleted, created_at, updated_at`

func scanSpot(scanner interface{ Scan(...any) error }) (*model.Spot, error) {
	var sp model.Spot
	err := scanner.Scan(&sp.ID, &sp.FamilyID, &sp.Type, &sp.Name, &sp.MoodScore, &sp.IsDeleted, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *SpotStore) Create(familyID int64, spotType, name string) (*model.Spot, error) {
	result, err := s.db.Exec(
		`INSERT INTO spots (family_id, type, name) VALUES (?, ?, ?)`,
		familyID, spotType, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert spot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetByID loads a spot with its responsible member set. Soft-deleted spots
// are still returned; callers check IsDeleted because the orchestrator
// must distinguish "missing" from "deleted but lingering".
func (s *SpotStore) GetByID(id int64) (*model.Spot, error) {
	row := s.db.QueryRow(`SELECT `+spotCols+` FROM spots WHERE id = ?`, id)
	sp, err := scanSpot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get spot: %w", err)
	}

	sp.ResponsibleMemberIDs, err = s.responsibleMembers(sp.ID)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *SpotStore) responsibleMembers(spotID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT member_id FROM spot_members WHERE spot_id = ? ORDER BY member_id`, spotID,
	)
	if err != nil {
		return nil, fmt.Errorf("list spot members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan spot member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SpotStore) ListByFamily(familyID int64) ([]model.Spot, error) {
	rows, err := s.db.Query(
		`SELECT `+spotCols+` FROM spots WHERE family_id = ? AND is_deleted = 0 ORDER BY id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	var spots []model.Spot
	for rows.Next() {
		sp, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range spots {
		spots[i].ResponsibleMemberIDs, err = s.responsibleMembers(spots[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return spots, nil
}

// SetResponsibleMembers replaces the spot's responsible member set.
func (s *SpotStore) SetResponsibleMembers(spotID int64, memberIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM spot_members WHERE spot_id = ?`, spotID); err != nil {
		return fmt.Errorf("clear spot members: %w", err)
	}
	for _, mid := range memberIDs {
		if _, err := tx.Exec(`INSERT INTO spot_members (spot_id, member_id) VALUES (?, ?)`, spotID, mid); err != nil {
			return fmt.Errorf("insert spot member: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SpotStore) SetMoodScore(id int64, score int) error {
	_, err := s.db.Exec(
		`UPDATE spots SET mood_score = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		score, id,
	)
	if err != nil {
		return fmt.Errorf("set mood score: %w", err)
	}
	return nil
}

// Delete soft-deletes a spot. Templates pointing at it stop producing
// instances on the next orchestrator pass.
func (s *SpotStore) Delete(id int64) error {
	_, err := s.db.Exec(
		`UPDATE spots SET is_deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("delete spot: %w", err)
	}
	return nil
}
