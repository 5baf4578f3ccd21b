package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/schedule"
)

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateCols = `id, family_id, spot_id, title, points, schedule_kind, time_of_day, day_of_week, day_of_month, due_duration_minutes, created_by, is_deleted, created_at, updated_at`

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.TaskTemplate, error) {
	var t model.TaskTemplate
	var kind, timeOfDay string
	var dayOfWeek, dayOfMonth, createdBy sql.NullInt64
	var dueMinutes int64

	err := scanner.Scan(
		&t.ID, &t.FamilyID, &t.SpotID, &t.Title, &t.Points,
		&kind, &timeOfDay, &dayOfWeek, &dayOfMonth, &dueMinutes,
		&createdBy, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Schedule.Kind = schedule.Kind(kind)
	t.Schedule.TimeOfDay, err = schedule.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("template %d: %w", t.ID, err)
	}
	if dayOfWeek.Valid {
		wd := time.Weekday(dayOfWeek.Int64)
		t.Schedule.DayOfWeek = &wd
	}
	if dayOfMonth.Valid {
		dom := int(dayOfMonth.Int64)
		t.Schedule.DayOfMonth = &dom
	}
	t.DueDuration = time.Duration(dueMinutes) * time.Minute
	if createdBy.Valid {
		t.CreatedBy = &createdBy.Int64
	}
	return &t, nil
}

func scheduleParams(s schedule.Schedule) (kind, timeOfDay string, dayOfWeek, dayOfMonth sql.NullInt64) {
	kind = string(s.Kind)
	timeOfDay = s.TimeOfDay.String()
	if s.DayOfWeek != nil {
		dayOfWeek = sql.NullInt64{Int64: int64(*s.DayOfWeek), Valid: true}
	}
	if s.DayOfMonth != nil {
		dayOfMonth = sql.NullInt64{Int64: int64(*s.DayOfMonth), Valid: true}
	}
	return
}

func (s *TemplateStore) Create(familyID, spotID int64, title string, points int, sched schedule.Schedule, dueDuration time.Duration, createdBy *int64) (*model.TaskTemplate, error) {
	kind, tod, dow, dom := scheduleParams(sched)
	var cBy sql.NullInt64
	if createdBy != nil {
		cBy = sql.NullInt64{Int64: *createdBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO task_templates (family_id, spot_id, title, points, schedule_kind, time_of_day, day_of_week, day_of_month, due_duration_minutes, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		familyID, spotID, title, points, kind, tod, dow, dom, int64(dueDuration/time.Minute), cBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) GetByID(id int64) (*model.TaskTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM task_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	t.ResponsibleMemberIDs, err = s.responsibleMembers(t.ID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateStore) responsibleMembers(templateID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT member_id FROM template_members WHERE template_id = ? ORDER BY member_id`, templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("list template members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan template member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *TemplateStore) ListByFamily(familyID int64) ([]model.TaskTemplate, error) {
	rows, err := s.db.Query(
		`SELECT `+templateCols+` FROM task_templates WHERE family_id = ? AND is_deleted = 0 ORDER BY id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []model.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range templates {
		templates[i].ResponsibleMemberIDs, err = s.responsibleMembers(templates[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// ListScheduled loads every non-deleted template of every active family
// together with the family's timezone, in one query. This is the
// orchestrator's single read per pass.
func (s *TemplateStore) ListScheduled() ([]model.ScheduledTemplate, error) {
	cols := "t.id, t.family_id, t.spot_id, t.title, t.points, t.schedule_kind, t.time_of_day, t.day_of_week, t.day_of_month, t.due_duration_minutes, t.created_by, t.is_deleted, t.created_at, t.updated_at"
	rows, err := s.db.Query(
		`SELECT ` + cols + `, f.timezone
		 FROM task_templates t
		 JOIN families f ON f.id = t.family_id
		 WHERE t.is_deleted = 0 AND f.is_active = 1 AND t.schedule_kind != 'manual'
		 ORDER BY t.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list scheduled templates: %w", err)
	}
	defer rows.Close()

	var templates []model.ScheduledTemplate
	for rows.Next() {
		var t model.TaskTemplate
		var kind, timeOfDay, tz string
		var dayOfWeek, dayOfMonth, createdBy sql.NullInt64
		var dueMinutes int64

		err := rows.Scan(
			&t.ID, &t.FamilyID, &t.SpotID, &t.Title, &t.Points,
			&kind, &timeOfDay, &dayOfWeek, &dayOfMonth, &dueMinutes,
			&createdBy, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt, &tz,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scheduled template: %w", err)
		}

		t.Schedule.Kind = schedule.Kind(kind)
		t.Schedule.TimeOfDay, err = schedule.ParseTimeOfDay(timeOfDay)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", t.ID, err)
		}
		if dayOfWeek.Valid {
			wd := time.Weekday(dayOfWeek.Int64)
			t.Schedule.DayOfWeek = &wd
		}
		if dayOfMonth.Valid {
			dom := int(dayOfMonth.Int64)
			t.Schedule.DayOfMonth = &dom
		}
		t.DueDuration = time.Duration(dueMinutes) * time.Minute
		if createdBy.Valid {
			t.CreatedBy = &createdBy.Int64
		}

		templates = append(templates, model.ScheduledTemplate{TaskTemplate: t, FamilyTimezone: tz})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range templates {
		templates[i].ResponsibleMemberIDs, err = s.responsibleMembers(templates[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (s *TemplateStore) Update(id int64, title string, points int, sched schedule.Schedule, dueDuration time.Duration) (*model.TaskTemplate, error) {
	kind, tod, dow, dom := scheduleParams(sched)
	_, err := s.db.Exec(
		`UPDATE task_templates
		 SET title = ?, points = ?, schedule_kind = ?, time_of_day = ?, day_of_week = ?, day_of_month = ?, due_duration_minutes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, points, kind, tod, dow, dom, int64(dueDuration/time.Minute), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) SetResponsibleMembers(templateID int64, memberIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM template_members WHERE template_id = ?`, templateID); err != nil {
		return fmt.Errorf("clear template members: %w", err)
	}
	for _, mid := range memberIDs {
		if _, err := tx.Exec(`INSERT INTO template_members (template_id, member_id) VALUES (?, ?)`, templateID, mid); err != nil {
			return fmt.Errorf("insert template member: %w", err)
		}
	}
	return tx.Commit()
}

// Delete soft-deletes the template. Existing instances survive.
func (s *TemplateStore) Delete(id int64) error {
	_, err := s.db.Exec(
		`UPDATE task_templates SET is_deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
