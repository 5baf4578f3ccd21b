package mood

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/store"
)

// Calculator derives a spot's 0-100 mood score. The scoring algorithm is
// replaceable; the core only depends on this capability.
type Calculator interface {
	CalculateMoodScore(ctx context.Context, spotID int64) (int, error)
}

// TaskPressureCalculator scores a spot from its open-task pressure: a
// content baseline, penalties for open and overdue work, a small bonus for
// recent completions.
type TaskPressureCalculator struct {
	tasks *store.TaskStore
	now   func() time.Time
}

func NewTaskPressureCalculator(tasks *store.TaskStore) *TaskPressureCalculator {
	return &TaskPressureCalculator{tasks: tasks, now: time.Now}
}

func (c *TaskPressureCalculator) CalculateMoodScore(ctx context.Context, spotID int64) (int, error) {
	open, err := c.tasks.ListOpenBySpot(spotID)
	if err != nil {
		return 0, fmt.Errorf("open tasks for spot %d: %w", spotID, err)
	}

	now := c.now().UTC()
	score := 90
	for _, t := range open {
		if t.DueAt.Before(now) {
			score -= 20
		} else {
			score -= 5
		}
	}

	recent, err := c.tasks.CompletedSince(spotID, now.Add(-24*time.Hour))
	if err != nil {
		return 0, fmt.Errorf("recent completions for spot %d: %w", spotID, err)
	}
	score += recent * 5

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

// Recalculator recomputes and persists a spot's mood score, emitting a
// mood_changed event when the score moved. Failures are logged, never
// propagated: a mood hiccup must not fail the task operation that
// triggered it.
type Recalculator struct {
	calc   Calculator
	spots  *store.SpotStore
	events *store.EventStore
	logger *slog.Logger
}

func NewRecalculator(calc Calculator, spots *store.SpotStore, events *store.EventStore, logger *slog.Logger) *Recalculator {
	return &Recalculator{calc: calc, spots: spots, events: events, logger: logger}
}

func (r *Recalculator) Recalculate(ctx context.Context, spotID int64) {
	spot, err := r.spots.GetByID(spotID)
	if err != nil || spot == nil {
		r.logger.Warn("mood recalculation: load spot", "spot_id", spotID, "error", err)
		return
	}

	score, err := r.calc.CalculateMoodScore(ctx, spotID)
	if err != nil {
		r.logger.Warn("mood recalculation failed", "spot_id", spotID, "error", err)
		return
	}
	if score == spot.MoodScore {
		return
	}

	if err := r.spots.SetMoodScore(spotID, score); err != nil {
		r.logger.Warn("persist mood score", "spot_id", spotID, "error", err)
		return
	}

	if _, err := r.events.Append(spot.FamilyID, model.EntitySpot, model.ActionMoodChanged, spotID, map[string]any{
		"mood_score": score,
	}); err != nil {
		r.logger.Warn("append mood event", "spot_id", spotID, "error", err)
	}
}
