package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

// ErrDuplicateOpenInstance is returned by Insert when the partial unique
// index rejects a second open instance for the same template. It backs the
// de-duplication invariant under concurrent orchestrators, where the
// in-memory factory check alone is not atomic.
var ErrDuplicateOpenInstance = errors.New("open instance already exists for template")

// ErrVersionConflict is returned by UpdateWithVersion when the row changed
// since it was loaded.
var ErrVersionConflict = errors.New("task instance version conflict")

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, family_id, spot_id, template_id, title, points, status, due_at, assigned_to, completed_at, version, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.TaskInstance, error) {
	var t model.TaskInstance
	var templateID, assignedTo sql.NullInt64
	var completedAt sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.FamilyID, &t.SpotID, &templateID, &t.Title, &t.Points,
		&t.Status, &t.DueAt, &assignedTo, &completedAt, &t.Version,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if templateID.Valid {
		t.TemplateID = &templateID.Int64
	}
	if assignedTo.Valid {
		t.AssignedTo = &assignedTo.Int64
	}
	if completedAt.Valid {
		at := completedAt.Time
		t.CompletedAt = &at
	}
	return &t, nil
}

// Insert persists a new instance and returns it with id, version and
// timestamps filled in.
func (s *TaskStore) Insert(inst *model.TaskInstance) (*model.TaskInstance, error) {
	var templateID, assignedTo sql.NullInt64
	if inst.TemplateID != nil {
		templateID = sql.NullInt64{Int64: *inst.TemplateID, Valid: true}
	}
	if inst.AssignedTo != nil {
		assignedTo = sql.NullInt64{Int64: *inst.AssignedTo, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO task_instances (family_id, spot_id, template_id, title, points, status, due_at, assigned_to)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.FamilyID, inst.SpotID, templateID, inst.Title, inst.Points, inst.Status, inst.DueAt.UTC(), assignedTo,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("insert task instance: %w", ErrDuplicateOpenInstance)
		}
		return nil, fmt.Errorf("insert task instance: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.TaskInstance, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM task_instances WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task instance: %w", err)
	}
	return t, nil
}

// UpdateWithVersion persists a lifecycle mutation guarded by optimistic
// concurrency: the update only applies if the stored version still matches
// the version the instance was loaded with. Two concurrent Start calls on
// the same instance resolve to one success and one ErrVersionConflict.
func (s *TaskStore) UpdateWithVersion(inst *model.TaskInstance) error {
	var assignedTo sql.NullInt64
	if inst.AssignedTo != nil {
		assignedTo = sql.NullInt64{Int64: *inst.AssignedTo, Valid: true}
	}
	var completedAt sql.NullTime
	if inst.CompletedAt != nil {
		completedAt = sql.NullTime{Time: inst.CompletedAt.UTC(), Valid: true}
	}

	result, err := s.db.Exec(
		`UPDATE task_instances
		 SET status = ?, assigned_to = ?, completed_at = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ?`,
		inst.Status, assignedTo, completedAt, inst.ID, inst.Version,
	)
	if err != nil {
		return fmt.Errorf("update task instance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	inst.Version++
	return nil
}

// ListOpenByTemplate returns the template's instances still counting
// against the de-duplication invariant.
func (s *TaskStore) ListOpenByTemplate(templateID int64) ([]model.TaskInstance, error) {
	return s.list(
		`SELECT `+taskCols+` FROM task_instances
		 WHERE template_id = ? AND status IN ('active', 'in_progress') ORDER BY id`,
		templateID,
	)
}

func (s *TaskStore) ListOpenByFamily(familyID int64) ([]model.TaskInstance, error) {
	return s.list(
		`SELECT `+taskCols+` FROM task_instances
		 WHERE family_id = ? AND status IN ('active', 'in_progress') ORDER BY due_at`,
		familyID,
	)
}

func (s *TaskStore) ListOpenBySpot(spotID int64) ([]model.TaskInstance, error) {
	return s.list(
		`SELECT `+taskCols+` FROM task_instances
		 WHERE spot_id = ? AND status IN ('active', 'in_progress') ORDER BY due_at`,
		spotID,
	)
}

// ListDueBetween returns open instances whose due time falls in the
// half-open UTC window [from, to).
func (s *TaskStore) ListDueBetween(from, to time.Time) ([]model.TaskInstance, error) {
	return s.list(
		`SELECT `+taskCols+` FROM task_instances
		 WHERE status IN ('active', 'in_progress') AND due_at >= ? AND due_at < ? ORDER BY due_at`,
		from.UTC(), to.UTC(),
	)
}

// CountOverdueByFamily counts open instances past due as of the given
// instant.
func (s *TaskStore) CountOverdueByFamily(familyID int64, asOf time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM task_instances
		 WHERE family_id = ? AND status IN ('active', 'in_progress') AND due_at < ?`,
		familyID, asOf.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count overdue: %w", err)
	}
	return n, nil
}

// CompletedSince counts a spot's completions after the given instant, an
// input to mood scoring.
func (s *TaskStore) CompletedSince(spotID int64, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM task_instances
		 WHERE spot_id = ? AND status = 'completed' AND completed_at >= ?`,
		spotID, since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return n, nil
}

func (s *TaskStore) list(query string, args ...any) ([]model.TaskInstance, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list task instances: %w", err)
	}
	defer rows.Close()

	var tasks []model.TaskInstance
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task instance: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
