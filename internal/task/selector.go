package task

import (
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

// SelectAssignee picks the member a new instance is pre-assigned to.
//
// Candidates come from the spot's responsible set, falling back to the
// template's; inactive members are filtered out. Among candidates the one
// assigned least recently wins (never-assigned first), with ties broken by
// smallest member id, so repeated materializations rotate fairly and
// deterministically. Returns nil when no candidate exists: the instance
// stays unassigned and any active member may claim it.
func SelectAssignee(tmpl *model.TaskTemplate, spot *model.Spot, active map[int64]bool, lastAssigned map[int64]time.Time) *int64 {
	candidates := spot.ResponsibleMemberIDs
	if len(candidates) == 0 {
		candidates = tmpl.ResponsibleMemberIDs
	}

	var (
		best     int64
		bestAt   time.Time
		haveBest bool
	)
	for _, id := range candidates {
		if !active[id] {
			continue
		}
		at := lastAssigned[id] // zero time for never-assigned
		switch {
		case !haveBest:
			best, bestAt, haveBest = id, at, true
		case at.Before(bestAt):
			best, bestAt = id, at
		case at.Equal(bestAt) && id < best:
			best = id
		}
	}

	if !haveBest {
		return nil
	}
	return &best
}
