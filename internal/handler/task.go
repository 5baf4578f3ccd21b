package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/store"
	"github.com/av-mamzikov/family-task-manager/internal/task"
)

type TaskHandler struct {
	service *task.Service
	tasks   *store.TaskStore
	logger  *slog.Logger
}

func NewTaskHandler(service *task.Service, tasks *store.TaskStore, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: service, tasks: tasks, logger: logger}
}

// List returns a family's open tasks ordered by due time.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, ok := parseFamilyIDQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "family_id is required")
		return
	}

	tasks, err := h.tasks.ListOpenByFamily(familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.TaskInstance{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	inst, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if inst == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

type oneOffRequest struct {
	FamilyID   int64     `json:"family_id"`
	SpotID     int64     `json:"spot_id"`
	Title      string    `json:"title"`
	Points     int       `json:"points"`
	DueAt      time.Time `json:"due_at"`
	AssignedTo *int64    `json:"assigned_to"`
}

// Create makes an ad hoc one-off task with no backing template.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req oneOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.DueAt.IsZero() {
		writeError(w, http.StatusBadRequest, "due_at is required")
		return
	}

	inst, err := h.service.CreateOneOff(r.Context(), req.FamilyID, req.SpotID, req.Title, req.Points, req.DueAt, req.AssignedTo)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}

// Take claims an active task for the calling user.
func (h *TaskHandler) Take(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Take)
}

// Complete finishes a task and credits its points.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

// Refuse releases an in-progress task back to the pool.
func (h *TaskHandler) Refuse(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Refuse)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	if err := h.service.Delete(r.Context(), id, uid); err != nil {
		writeTaskError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, taskID, userID int64) (*model.TaskInstance, error)) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	inst, err := op(r.Context(), id, uid)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}
