package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/store"
)

func newTestRunner(t *testing.T, env *testEnv, interval time.Duration) (*Runner, *store.SettingsStore) {
	t.Helper()
	settings := store.NewSettingsStore(env.db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRunner(env.orchestrator, newReminderService(env, 19), settings, interval, logger), settings
}

func TestTickMaterializesAndCheckpoints(t *testing.T) {
	env := setupEnv(t)
	_, _, templateID, _, _ := env.seedWeekly(t)
	runner, settings := newTestRunner(t, env, time.Hour)

	// First tick: no checkpoint, so the window is one interval wide and
	// covers the Monday 06:00 UTC trigger.
	now := time.Date(2026, 1, 5, 6, 15, 0, 0, time.UTC)
	runner.now = func() time.Time { return now }
	runner.Tick(context.Background())

	open, err := env.tasks.ListOpenByTemplate(templateID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open instances = %d, want 1", len(open))
	}

	for _, key := range []string{store.KeySchedulerWindowEnd, store.KeyReminderWindowEnd, store.KeyOverdueLastFire} {
		got, ok, err := settings.GetTime(key)
		if err != nil || !ok {
			t.Fatalf("checkpoint %s missing: %v", key, err)
		}
		if !got.Equal(now) {
			t.Errorf("checkpoint %s = %v, want %v", key, got, now)
		}
	}
}

func TestTicksFormContiguousWindows(t *testing.T) {
	env := setupEnv(t)
	_, _, templateID, _, _ := env.seedWeekly(t)
	runner, _ := newTestRunner(t, env, time.Hour)

	// Walk across the trigger in small uneven steps; the checkpoint chain
	// must cover the trigger exactly once.
	now := time.Date(2026, 1, 5, 5, 0, 0, 0, time.UTC)
	runner.now = func() time.Time { return now }
	runner.Tick(context.Background())

	for _, step := range []time.Duration{37 * time.Minute, 41 * time.Minute, 55 * time.Minute} {
		now = now.Add(step)
		runner.Tick(context.Background())
	}

	open, err := env.tasks.ListOpenByTemplate(templateID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open instances = %d, want exactly 1", len(open))
	}
}

func TestTickCatchesUpAfterOutage(t *testing.T) {
	env := setupEnv(t)
	_, _, templateID, _, _ := env.seedWeekly(t)
	runner, settings := newTestRunner(t, env, time.Minute)

	// The service was down across the trigger; the stored checkpoint is
	// hours in the past and the next tick processes one wide window.
	if err := settings.SetTime(store.KeySchedulerWindowEnd, time.Date(2026, 1, 5, 2, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("seed checkpoint: %v", err)
	}

	runner.now = func() time.Time { return time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC) }
	runner.Tick(context.Background())

	open, err := env.tasks.ListOpenByTemplate(templateID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open instances = %d after catch-up, want 1", len(open))
	}
}
