package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/av-mamzikov/family-task-manager/internal/store"
)

// Runner drives the orchestrator and reminder services on a fixed cadence,
// handing each of them a contiguous sequence of half-open UTC windows.
// Window ends are checkpointed in the settings store so the sequence stays
// gapless across restarts; a long outage is caught up in one wide window
// on the next tick.
type Runner struct {
	orchestrator *Orchestrator
	reminders    *ReminderService
	settings     *store.SettingsStore
	interval     time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu   sync.Mutex // one tick at a time
	cron *cron.Cron
}

func NewRunner(orchestrator *Orchestrator, reminders *ReminderService, settings *store.SettingsStore, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		orchestrator: orchestrator,
		reminders:    reminders,
		settings:     settings,
		interval:     interval,
		logger:       logger,
		now:          time.Now,
	}
}

// Start schedules the tick on the cron cadence. The context bounds each
// tick's work.
func (r *Runner) Start(ctx context.Context) error {
	r.cron = cron.New()
	spec := fmt.Sprintf("@every %s", r.interval)
	if _, err := r.cron.AddFunc(spec, func() { r.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}
	r.cron.Start()
	r.logger.Info("scheduler running", "interval", r.interval)
	return nil
}

// Stop halts the cadence and waits for a running tick to finish.
func (r *Runner) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	r.mu.Lock() // wait out an in-flight tick
	r.mu.Unlock()
}

// Tick runs one full pass: scheduled task materialization, due-task
// reminders, daily overdue summaries. Exported so an external job runner
// can invoke it directly instead of the internal cadence.
func (r *Runner) Tick(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	r.processWindow(ctx, now)
	r.remindWindow(ctx, now)
	r.overduePass(ctx, now)
}

func (r *Runner) processWindow(ctx context.Context, now time.Time) {
	from := r.windowStart(store.KeySchedulerWindowEnd, now)
	if !from.Before(now) {
		return
	}

	if _, err := r.orchestrator.Process(ctx, from, now); err != nil {
		// Leave the checkpoint in place; the window is retried next
		// tick, and idempotent materialization absorbs the overlap.
		r.logger.Error("process scheduled tasks", "from", from, "to", now, "error", err)
		return
	}
	if err := r.settings.SetTime(store.KeySchedulerWindowEnd, now); err != nil {
		r.logger.Error("checkpoint scheduler window", "error", err)
	}
}

func (r *Runner) remindWindow(ctx context.Context, now time.Time) {
	from := r.windowStart(store.KeyReminderWindowEnd, now)
	if !from.Before(now) {
		return
	}

	if _, err := r.reminders.SendTaskReminders(ctx, from, now); err != nil {
		r.logger.Error("send task reminders", "from", from, "to", now, "error", err)
		return
	}
	if err := r.settings.SetTime(store.KeyReminderWindowEnd, now); err != nil {
		r.logger.Error("checkpoint reminder window", "error", err)
	}
}

func (r *Runner) overduePass(ctx context.Context, now time.Time) {
	var prev *time.Time
	if t, ok, err := r.settings.GetTime(store.KeyOverdueLastFire); err != nil {
		r.logger.Error("load overdue baseline", "error", err)
		return
	} else if ok {
		prev = &t
	}

	if _, err := r.reminders.SendDailyOverdueReminders(ctx, prev, now); err != nil {
		r.logger.Error("send overdue reminders", "error", err)
		return
	}
	if err := r.settings.SetTime(store.KeyOverdueLastFire, now); err != nil {
		r.logger.Error("checkpoint overdue baseline", "error", err)
	}
}

// windowStart resumes from the checkpoint, or starts one interval back on
// the very first run.
func (r *Runner) windowStart(key string, now time.Time) time.Time {
	t, ok, err := r.settings.GetTime(key)
	if err != nil {
		r.logger.Error("load window checkpoint", "key", key, "error", err)
	}
	if !ok || err != nil {
		return now.Add(-r.interval)
	}
	return t
}
