package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/mood"
	"github.com/av-mamzikov/family-task-manager/internal/schedule"
	"github.com/av-mamzikov/family-task-manager/internal/store"
	"github.com/av-mamzikov/family-task-manager/internal/task"
)

// Orchestrator scans all scheduled templates on each invocation and
// materializes task instances for the ones that fire inside the window.
// Each template is an independent failure domain: one misbehaving template
// is logged and skipped, never aborting the batch.
type Orchestrator struct {
	templates *store.TemplateStore
	spots     *store.SpotStore
	tasks     *store.TaskStore
	members   *store.FamilyMemberStore
	events    *store.EventStore
	mood      *mood.Recalculator
	logger    *slog.Logger
}

func NewOrchestrator(templates *store.TemplateStore, spots *store.SpotStore, tasks *store.TaskStore, members *store.FamilyMemberStore, events *store.EventStore, moodRecalc *mood.Recalculator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		templates: templates,
		spots:     spots,
		tasks:     tasks,
		members:   members,
		events:    events,
		mood:      moodRecalc,
		logger:    logger,
	}
}

// Process evaluates every scheduled template against the half-open UTC
// window [checkFrom, checkTo) and returns the number of instances created.
// Callers must supply contiguous, non-overlapping windows across
// invocations; re-running a window is safe because the de-duplication
// guard rejects a second open instance per template.
func (o *Orchestrator) Process(ctx context.Context, checkFrom, checkTo time.Time) (int, error) {
	if !checkFrom.Before(checkTo) {
		return 0, fmt.Errorf("invalid window: %v >= %v", checkFrom, checkTo)
	}

	templates, err := o.templates.ListScheduled()
	if err != nil {
		return 0, fmt.Errorf("load scheduled templates: %w", err)
	}

	created := 0
	for i := range templates {
		if ctx.Err() != nil {
			// Cancellation mid-batch keeps already-created instances;
			// each template is its own unit of work.
			return created, ctx.Err()
		}
		if o.processTemplate(ctx, &templates[i], checkFrom, checkTo) {
			created++
		}
	}

	if created > 0 {
		o.logger.Info("scheduled tasks processed",
			"created", created,
			"templates", len(templates),
			"from", checkFrom,
			"to", checkTo,
		)
	}
	return created, nil
}

// processTemplate handles one template end to end and reports whether an
// instance was created.
func (o *Orchestrator) processTemplate(ctx context.Context, tmpl *model.ScheduledTemplate, checkFrom, checkTo time.Time) (created bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("template processing panicked",
				"template_id", tmpl.ID,
				"schedule", tmpl.Schedule.Describe(),
				"panic", r,
			)
			created = false
		}
	}()

	loc, err := schedule.LoadLocation(tmpl.FamilyTimezone)
	if err != nil {
		o.logger.Error("template has unusable timezone",
			"template_id", tmpl.ID, "timezone", tmpl.FamilyTimezone, "error", err)
		return false
	}

	triggerAt, ok := tmpl.Schedule.ShouldTriggerInWindow(checkFrom, checkTo, loc)
	if !ok {
		return false
	}
	dueAt := triggerAt.Add(tmpl.DueDuration)

	spot, err := o.spots.GetByID(tmpl.SpotID)
	if err != nil {
		o.logger.Error("load spot", "template_id", tmpl.ID, "spot_id", tmpl.SpotID, "error", err)
		return false
	}
	if spot == nil || spot.IsDeleted {
		// Spot deletion cascades template invalidation asynchronously;
		// until then the template is skipped each pass.
		o.logger.Warn("template points at missing or deleted spot",
			"template_id", tmpl.ID, "spot_id", tmpl.SpotID)
		return false
	}

	existing, err := o.tasks.ListOpenByTemplate(tmpl.ID)
	if err != nil {
		o.logger.Error("load open instances", "template_id", tmpl.ID, "error", err)
		return false
	}

	active, err := o.members.ActiveIDs(tmpl.FamilyID)
	if err != nil {
		o.logger.Error("load active members", "template_id", tmpl.ID, "error", err)
		return false
	}
	lastAssigned, err := o.members.LastAssignedAt(tmpl.FamilyID)
	if err != nil {
		o.logger.Error("load assignment history", "template_id", tmpl.ID, "error", err)
		return false
	}
	assignee := task.SelectAssignee(&tmpl.TaskTemplate, spot, active, lastAssigned)

	inst, err := task.CreateFromTemplate(&tmpl.TaskTemplate, spot, dueAt, existing, assignee)
	if err != nil {
		if errors.Is(err, task.ErrDuplicateActive) {
			// Expected whenever the previous instance is still open.
			o.logger.Debug("skipping template with open instance", "template_id", tmpl.ID)
		} else {
			o.logger.Error("materialize instance",
				"template_id", tmpl.ID, "schedule", tmpl.Schedule.Describe(), "error", err)
		}
		return false
	}

	persisted, err := o.tasks.Insert(inst)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateOpenInstance) {
			// A concurrent orchestrator won the insert race; the unique
			// index kept the invariant.
			o.logger.Debug("lost instance creation race", "template_id", tmpl.ID)
		} else {
			o.logger.Error("persist instance", "template_id", tmpl.ID, "error", err)
		}
		return false
	}

	if _, err := o.events.Append(persisted.FamilyID, model.EntityTask, model.ActionCreated, persisted.ID, map[string]any{
		"template_id": tmpl.ID,
		"due_at":      persisted.DueAt,
	}); err != nil {
		o.logger.Warn("append creation event", "task_id", persisted.ID, "error", err)
	}

	o.mood.Recalculate(ctx, persisted.SpotID)
	return true
}
