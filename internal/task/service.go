package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/mood"
	"github.com/av-mamzikov/family-task-manager/internal/store"
)

// Service wraps the lifecycle transitions into user-facing commands:
// resolve the caller to a family member, apply the transition, persist
// under optimistic concurrency, emit the event, recalculate mood.
type Service struct {
	tasks     *store.TaskStore
	templates *store.TemplateStore
	spots     *store.SpotStore
	members   *store.FamilyMemberStore
	events    *store.EventStore
	mood      *mood.Recalculator
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(tasks *store.TaskStore, templates *store.TemplateStore, spots *store.SpotStore, members *store.FamilyMemberStore, events *store.EventStore, moodRecalc *mood.Recalculator, logger *slog.Logger) *Service {
	return &Service{
		tasks:     tasks,
		templates: templates,
		spots:     spots,
		members:   members,
		events:    events,
		mood:      moodRecalc,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) loadTask(taskID int64) (*model.TaskInstance, error) {
	inst, err := s.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("%w: task %d", ErrNotFound, taskID)
	}
	return inst, nil
}

func (s *Service) resolveMember(familyID, userID int64) (*model.FamilyMember, error) {
	member, err := s.members.GetByUserID(familyID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil || !member.IsActive {
		return nil, fmt.Errorf("%w: no active member for user %d in family %d", ErrNotFound, userID, familyID)
	}
	return member, nil
}

func (s *Service) persist(ctx context.Context, inst *model.TaskInstance, action string, payload map[string]any) error {
	if err := s.tasks.UpdateWithVersion(inst); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return ErrVersionMismatch
		}
		return err
	}

	if _, err := s.events.Append(inst.FamilyID, model.EntityTask, action, inst.ID, payload); err != nil {
		s.logger.Warn("append task event", "task_id", inst.ID, "action", action, "error", err)
	}
	s.mood.Recalculate(ctx, inst.SpotID)
	return nil
}

// Take claims an Active task for the calling user's member.
func (s *Service) Take(ctx context.Context, taskID, userID int64) (*model.TaskInstance, error) {
	inst, err := s.loadTask(taskID)
	if err != nil {
		return nil, err
	}
	member, err := s.resolveMember(inst.FamilyID, userID)
	if err != nil {
		return nil, err
	}

	if err := Start(inst, member.ID); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, inst, model.ActionTaken, map[string]any{"member_id": member.ID}); err != nil {
		return nil, err
	}
	return inst, nil
}

// Complete finishes a task and credits its points to the completing
// member. Point crediting lives here, not in the aggregate.
func (s *Service) Complete(ctx context.Context, taskID, userID int64) (*model.TaskInstance, error) {
	inst, err := s.loadTask(taskID)
	if err != nil {
		return nil, err
	}
	member, err := s.resolveMember(inst.FamilyID, userID)
	if err != nil {
		return nil, err
	}

	if err := Complete(inst, member.ID, s.now()); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, inst, model.ActionCompleted, map[string]any{
		"member_id": member.ID,
		"points":    inst.Points,
	}); err != nil {
		return nil, err
	}

	if err := s.members.AwardPoints(member.ID, inst.Points); err != nil {
		s.logger.Error("award points", "task_id", inst.ID, "member_id", member.ID, "error", err)
	}
	return inst, nil
}

// Refuse releases an InProgress task back to Active. Only the assignee may
// refuse; for anyone else the wrong-assignee check in the release guard
// applies through the assignment invariant.
func (s *Service) Refuse(ctx context.Context, taskID, userID int64) (*model.TaskInstance, error) {
	inst, err := s.loadTask(taskID)
	if err != nil {
		return nil, err
	}
	member, err := s.resolveMember(inst.FamilyID, userID)
	if err != nil {
		return nil, err
	}
	if inst.AssignedTo != nil && *inst.AssignedTo != member.ID {
		return nil, ErrWrongAssignee
	}

	if err := Release(inst); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, inst, model.ActionReleased, map[string]any{"member_id": member.ID}); err != nil {
		return nil, err
	}
	return inst, nil
}

// Delete marks a task deleted.
func (s *Service) Delete(ctx context.Context, taskID, userID int64) error {
	inst, err := s.loadTask(taskID)
	if err != nil {
		return err
	}
	member, err := s.resolveMember(inst.FamilyID, userID)
	if err != nil {
		return err
	}

	if err := Delete(inst, member.ID); err != nil {
		return err
	}
	return s.persist(ctx, inst, model.ActionDeleted, map[string]any{"member_id": member.ID})
}

// CreateFromTemplate materializes an instance ad hoc, bypassing schedule
// evaluation but not the de-duplication guard.
func (s *Service) CreateFromTemplate(ctx context.Context, templateID int64, dueAt time.Time) (*model.TaskInstance, error) {
	tmpl, err := s.templates.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, fmt.Errorf("%w: template %d", ErrNotFound, templateID)
	}

	spot, err := s.spots.GetByID(tmpl.SpotID)
	if err != nil {
		return nil, err
	}

	existing, err := s.tasks.ListOpenByTemplate(tmpl.ID)
	if err != nil {
		return nil, err
	}

	active, err := s.members.ActiveIDs(tmpl.FamilyID)
	if err != nil {
		return nil, err
	}
	lastAssigned, err := s.members.LastAssignedAt(tmpl.FamilyID)
	if err != nil {
		return nil, err
	}
	assignee := SelectAssignee(tmpl, spot, active, lastAssigned)

	inst, err := CreateFromTemplate(tmpl, spot, dueAt, existing, assignee)
	if err != nil {
		return nil, err
	}

	created, err := s.tasks.Insert(inst)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateOpenInstance) {
			return nil, ErrDuplicateActive
		}
		return nil, err
	}

	if _, err := s.events.Append(created.FamilyID, model.EntityTask, model.ActionCreated, created.ID, nil); err != nil {
		s.logger.Warn("append task event", "task_id", created.ID, "error", err)
	}
	s.mood.Recalculate(ctx, created.SpotID)
	return created, nil
}

// CreateOneOff creates an ad hoc task with no template; the de-duplication
// invariant does not apply.
func (s *Service) CreateOneOff(ctx context.Context, familyID, spotID int64, title string, points int, dueAt time.Time, assignedTo *int64) (*model.TaskInstance, error) {
	spot, err := s.spots.GetByID(spotID)
	if err != nil {
		return nil, err
	}
	if spot == nil || spot.IsDeleted || spot.FamilyID != familyID {
		return nil, fmt.Errorf("%w: spot %d", ErrNotFound, spotID)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if points < 1 || points > 100 {
		return nil, fmt.Errorf("%w: points out of range", ErrValidation)
	}

	created, err := s.tasks.Insert(&model.TaskInstance{
		FamilyID:   familyID,
		SpotID:     spotID,
		Title:      title,
		Points:     points,
		Status:     model.StatusActive,
		DueAt:      dueAt.UTC(),
		AssignedTo: assignedTo,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.events.Append(created.FamilyID, model.EntityTask, model.ActionCreated, created.ID, nil); err != nil {
		s.logger.Warn("append task event", "task_id", created.ID, "error", err)
	}
	s.mood.Recalculate(ctx, created.SpotID)
	return created, nil
}
