package task

import (
	"errors"
	"fmt"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

// Error taxonomy surfaced by the task core. HTTP handlers map these to
// status codes; the orchestrator treats ErrDuplicateActive as an expected
// skip rather than a failure.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")

	// ErrDuplicateActive is the factory's de-duplication guard: the
	// template already has an instance in Active or InProgress.
	ErrDuplicateActive = fmt.Errorf("%w: template already has an open task instance", ErrConflict)

	// ErrWrongAssignee is returned when a member other than the assignee
	// tries to complete or delete an in-progress task.
	ErrWrongAssignee = fmt.Errorf("%w: task is assigned to another member", ErrConflict)

	// ErrVersionMismatch is the optimistic-concurrency failure from the
	// store: the instance changed between load and update.
	ErrVersionMismatch = fmt.Errorf("%w: task was modified concurrently", ErrConflict)
)

// transitionError reports an action attempted from a disallowed status.
// It is a Conflict; illegal transitions are never silently ignored.
func transitionError(action string, status model.Status) error {
	return fmt.Errorf("%w: cannot %s task in status %q", ErrConflict, action, status)
}
