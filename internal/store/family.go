package store

import (
	"database/sql"
	"fmt"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

const familyCols = `id, name, timezone, leaderboard_enabled, is_active, created_at, updated_at`

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(&f.ID, &f.Name, &f.Timezone, &f.LeaderboardEnabled, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FamilyStore) Create(name, timezone string) (*model.Family, error) {
	result, err := s.db.Exec(
		`INSERT INTO families (name, timezone) VALUES (?, ?)`,
		name, timezone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) ListActive() ([]model.Family, error) {
	rows, err := s.db.Query(`SELECT ` + familyCols + ` FROM families WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var families []model.Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, *f)
	}
	return families, rows.Err()
}

func (s *FamilyStore) SetTimezone(id int64, timezone string) error {
	_, err := s.db.Exec(
		`UPDATE families SET timezone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		timezone, id,
	)
	if err != nil {
		return fmt.Errorf("set family timezone: %w", err)
	}
	return nil
}

func (s *FamilyStore) Deactivate(id int64) error {
	_, err := s.db.Exec(
		`UPDATE families SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("deactivate family: %w", err)
	}
	return nil
}
