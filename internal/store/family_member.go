package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

type FamilyMemberStore struct {
	db *sql.DB
}

func NewFamilyMemberStore(db *sql.DB) *FamilyMemberStore {
	return &FamilyMemberStore{db: db}
}

const memberCols = `id, family_id, user_id, name, role, points, is_active, created_at, updated_at`

func scanMember(scanner interface{ Scan(...any) error }) (*model.FamilyMember, error) {
	var m model.FamilyMember
	err := scanner.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Name, &m.Role, &m.Points, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *FamilyMemberStore) Create(familyID, userID int64, name string, role model.Role) (*model.FamilyMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO family_members (family_id, user_id, name, role) VALUES (?, ?, ?, ?)`,
		familyID, userID, name, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyMemberStore) GetByID(id int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM family_members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return m, nil
}

// GetByUserID resolves an external user id to the family membership, which
// is how command handlers translate callers into members.
func (s *FamilyMemberStore) GetByUserID(familyID, userID int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by user: %w", err)
	}
	return m, nil
}

func (s *FamilyMemberStore) ListByFamily(familyID int64) ([]model.FamilyMember, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? ORDER BY id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// ActiveIDs returns the set of active member ids for a family, used to
// filter assignment candidates.
func (s *FamilyMemberStore) ActiveIDs(familyID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(
		`SELECT id FROM family_members WHERE family_id = ? AND is_active = 1`, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active member ids: %w", err)
	}
	defer rows.Close()

	active := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		active[id] = true
	}
	return active, rows.Err()
}

// AwardPoints credits points to a member. Points only move through
// explicit awards; the task aggregate never touches them.
func (s *FamilyMemberStore) AwardPoints(id int64, points int) error {
	_, err := s.db.Exec(
		`UPDATE family_members SET points = points + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		points, id,
	)
	if err != nil {
		return fmt.Errorf("award points: %w", err)
	}
	return nil
}

func (s *FamilyMemberStore) Deactivate(id int64) error {
	_, err := s.db.Exec(
		`UPDATE family_members SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	return nil
}

// LastAssignedAt returns, per member, the creation time of their most
// recently assigned instance. Members never assigned are absent from the
// map; the selector treats them as highest priority.
func (s *FamilyMemberStore) LastAssignedAt(familyID int64) (map[int64]time.Time, error) {
	// Selecting the bare column keeps its DATETIME decltype, so the driver
	// hands back time.Time; a MAX() aggregate would come back as a string.
	// The per-member maximum is folded up here instead.
	rows, err := s.db.Query(
		`SELECT assigned_to, created_at FROM task_instances
		 WHERE family_id = ? AND assigned_to IS NOT NULL`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("last assigned: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]time.Time)
	for rows.Next() {
		var id int64
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("scan last assigned: %w", err)
		}
		if cur, ok := result[id]; !ok || at.After(cur) {
			result[id] = at
		}
	}
	return result, rows.Err()
}
