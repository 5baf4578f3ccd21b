package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/push"
	"github.com/av-mamzikov/family-task-manager/internal/schedule"
	"github.com/av-mamzikov/family-task-manager/internal/store"
)

// ReminderService emits reminder events and push notifications. It reads
// task and family data but never mutates task state.
type ReminderService struct {
	families    *store.FamilyStore
	tasks       *store.TaskStore
	events      *store.EventStore
	notifier    *push.Notifier
	overdueHour int // local hour of the daily overdue summary
	logger      *slog.Logger
}

func NewReminderService(families *store.FamilyStore, tasks *store.TaskStore, events *store.EventStore, notifier *push.Notifier, overdueHour int, logger *slog.Logger) *ReminderService {
	return &ReminderService{
		families:    families,
		tasks:       tasks,
		events:      events,
		notifier:    notifier,
		overdueHour: overdueHour,
		logger:      logger,
	}
}

// SendTaskReminders emits one due_soon event per open task whose due time
// falls in the half-open UTC window [from, to). With contiguous windows
// each task is reminded exactly once, at its due instant.
func (r *ReminderService) SendTaskReminders(ctx context.Context, from, to time.Time) (int, error) {
	if !from.Before(to) {
		return 0, fmt.Errorf("invalid window: %v >= %v", from, to)
	}

	due, err := r.tasks.ListDueBetween(from, to)
	if err != nil {
		return 0, fmt.Errorf("list due tasks: %w", err)
	}

	sent := 0
	for _, t := range due {
		if _, err := r.events.Append(t.FamilyID, model.EntityTask, model.ActionDueSoon, t.ID, map[string]any{
			"title":  t.Title,
			"due_at": t.DueAt,
		}); err != nil {
			r.logger.Error("append due_soon event", "task_id", t.ID, "error", err)
			continue
		}

		r.notifier.NotifyFamily(ctx, t.FamilyID, push.Payload{
			Title: "Task due",
			Body:  fmt.Sprintf("%q is due now", t.Title),
			Tag:   fmt.Sprintf("task-due-%d", t.ID),
		})
		sent++
	}
	return sent, nil
}

// SendDailyOverdueReminders fires at most one overdue summary per family
// per local calendar day: for each active family it checks whether the
// configured local hour boundary fell inside (previousFire, currentFire].
// A nil previousFire (first run) never fires; the caller persists
// currentFire as the next baseline.
func (r *ReminderService) SendDailyOverdueReminders(ctx context.Context, previousFire *time.Time, currentFire time.Time) (int, error) {
	families, err := r.families.ListActive()
	if err != nil {
		return 0, fmt.Errorf("list families: %w", err)
	}

	sent := 0
	for _, f := range families {
		loc, err := schedule.LoadLocation(f.Timezone)
		if err != nil {
			r.logger.Error("family has unusable timezone",
				"family_id", f.ID, "timezone", f.Timezone, "error", err)
			continue
		}

		if !schedule.CrossedLocalTimeBetween(previousFire, currentFire, loc, r.overdueHour) {
			continue
		}

		overdue, err := r.tasks.CountOverdueByFamily(f.ID, currentFire)
		if err != nil {
			r.logger.Error("count overdue tasks", "family_id", f.ID, "error", err)
			continue
		}
		if overdue == 0 {
			continue
		}

		if _, err := r.events.Append(f.ID, model.EntityTask, model.ActionOverdue, 0, map[string]any{
			"overdue_count": overdue,
		}); err != nil {
			r.logger.Error("append overdue event", "family_id", f.ID, "error", err)
			continue
		}

		r.notifier.NotifyFamily(ctx, f.ID, push.Payload{
			Title: "Overdue tasks",
			Body:  fmt.Sprintf("Your family has %d overdue task(s)", overdue),
			Tag:   "overdue-summary",
		})
		sent++
	}
	return sent, nil
}
