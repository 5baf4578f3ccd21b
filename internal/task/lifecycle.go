package task

import (
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
)

// Lifecycle transitions for a task instance:
//
//	Active -> InProgress (Start) -> Completed (Complete)
//	Active -> Completed (Complete by any member, auto-assigns)
//	InProgress -> Active (Release)
//	Active | InProgress -> Deleted (Delete)
//
// Completed and Deleted are terminal. The functions mutate the instance
// in memory only; persisting (with the version check) is the caller's job,
// as is crediting points and recalculating mood.

// Start moves an Active instance to InProgress and assigns it to memberID.
func Start(inst *model.TaskInstance, memberID int64) error {
	if inst.Status != model.StatusActive {
		return transitionError("start", inst.Status)
	}
	inst.Status = model.StatusInProgress
	inst.AssignedTo = &memberID
	return nil
}

// Complete finishes an instance. An InProgress instance may only be
// completed by its assignee. An Active (never started) instance may be
// completed by any member and records the completer as assignee, so
// history and point attribution always name a member.
func Complete(inst *model.TaskInstance, memberID int64, now time.Time) error {
	switch inst.Status {
	case model.StatusActive:
		inst.AssignedTo = &memberID
	case model.StatusInProgress:
		if inst.AssignedTo == nil || *inst.AssignedTo != memberID {
			return ErrWrongAssignee
		}
	default:
		return transitionError("complete", inst.Status)
	}

	inst.Status = model.StatusCompleted
	completedAt := now.UTC()
	inst.CompletedAt = &completedAt
	return nil
}

// Release returns an InProgress instance to Active and clears the
// assignee, making it claimable again.
func Release(inst *model.TaskInstance) error {
	if inst.Status != model.StatusInProgress {
		return transitionError("release", inst.Status)
	}
	inst.Status = model.StatusActive
	inst.AssignedTo = nil
	return nil
}

// Delete marks an open instance deleted. An assigned instance may only be
// deleted by its assignee.
func Delete(inst *model.TaskInstance, memberID int64) error {
	if !inst.Status.IsOpen() {
		return transitionError("delete", inst.Status)
	}
	if inst.AssignedTo != nil && *inst.AssignedTo != memberID {
		return ErrWrongAssignee
	}
	inst.Status = model.StatusDeleted
	return nil
}
