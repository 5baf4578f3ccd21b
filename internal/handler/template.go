package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/schedule"
	"github.com/av-mamzikov/family-task-manager/internal/store"
	"github.com/av-mamzikov/family-task-manager/internal/task"
)

type TemplateHandler struct {
	templates *store.TemplateStore
	spots     *store.SpotStore
	members   *store.FamilyMemberStore
	tasks     *task.Service
	logger    *slog.Logger
}

func NewTemplateHandler(templates *store.TemplateStore, spots *store.SpotStore, members *store.FamilyMemberStore, tasks *task.Service, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, spots: spots, members: members, tasks: tasks, logger: logger}
}

type templateRequest struct {
	SpotID             int64  `json:"spot_id"`
	Title              string `json:"title"`
	Points             int    `json:"points"`
	ScheduleKind       string `json:"schedule_kind"`
	TimeOfDay          string `json:"time_of_day"` // "HH:MM"
	DayOfWeek          *int   `json:"day_of_week,omitempty"`
	DayOfMonth         *int   `json:"day_of_month,omitempty"`
	DueDurationMinutes int64  `json:"due_duration_minutes"`
}

func (req *templateRequest) schedule() (schedule.Schedule, error) {
	kind, err := schedule.ParseKind(req.ScheduleKind)
	if err != nil {
		return schedule.Schedule{}, err
	}

	var s schedule.Schedule
	s.Kind = kind
	if req.TimeOfDay != "" {
		s.TimeOfDay, err = schedule.ParseTimeOfDay(req.TimeOfDay)
		if err != nil {
			return schedule.Schedule{}, err
		}
	}
	if req.DayOfWeek != nil {
		wd := time.Weekday(*req.DayOfWeek)
		s.DayOfWeek = &wd
	}
	if req.DayOfMonth != nil {
		s.DayOfMonth = req.DayOfMonth
	}
	if err := s.Validate(); err != nil {
		return schedule.Schedule{}, err
	}
	return s, nil
}

func (req *templateRequest) validate() (schedule.Schedule, string) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return schedule.Schedule{}, "title is required"
	}
	if req.Points < 1 || req.Points > 100 {
		return schedule.Schedule{}, "points must be between 1 and 100"
	}
	if req.DueDurationMinutes < 0 {
		return schedule.Schedule{}, "due_duration_minutes must not be negative"
	}
	sched, err := req.schedule()
	if err != nil {
		return schedule.Schedule{}, err.Error()
	}
	return sched, ""
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	sched, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	spot, err := h.spots.GetByID(req.SpotID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check spot")
		return
	}
	if spot == nil || spot.IsDeleted {
		writeError(w, http.StatusBadRequest, "spot not found")
		return
	}

	var createdBy *int64
	if uid, ok := userID(r); ok {
		if member, err := h.members.GetByUserID(spot.FamilyID, uid); err == nil && member != nil {
			createdBy = &member.ID
		}
	}

	tmpl, err := h.templates.Create(spot.FamilyID, spot.ID, req.Title, req.Points, sched,
		time.Duration(req.DueDurationMinutes)*time.Minute, createdBy)
	if err != nil {
		h.logger.Error("create template", "spot_id", req.SpotID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, ok := parseFamilyIDQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "family_id is required")
		return
	}

	templates, err := h.templates.ListByFamily(familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}
	if templates == nil {
		templates = []model.TaskTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	tmpl, err := h.templates.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if tmpl == nil || tmpl.IsDeleted {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.templates.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if existing == nil || existing.IsDeleted {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	sched, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	// Schedule changes apply from the next orchestrator pass; instances
	// already materialized are untouched.
	tmpl, err := h.templates.Update(id, req.Title, req.Points, sched,
		time.Duration(req.DueDurationMinutes)*time.Minute)
	if err != nil {
		h.logger.Error("update template", "template_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update template")
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// SetResponsibleMembers replaces the template's fallback assignment pool,
// consulted when the owning spot has no responsible members.
func (h *TemplateHandler) SetResponsibleMembers(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		MemberIDs []int64 `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tmpl, err := h.templates.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if tmpl == nil || tmpl.IsDeleted {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	for _, mid := range req.MemberIDs {
		member, err := h.members.GetByID(mid)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check member")
			return
		}
		if member == nil || member.FamilyID != tmpl.FamilyID {
			writeError(w, http.StatusBadRequest, "member does not belong to the template's family")
			return
		}
	}

	if err := h.templates.SetResponsibleMembers(id, req.MemberIDs); err != nil {
		h.logger.Error("set template members", "template_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set responsible members")
		return
	}

	tmpl, err = h.templates.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.templates.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if existing == nil || existing.IsDeleted {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	if err := h.templates.Delete(id); err != nil {
		h.logger.Error("delete template", "template_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Materialize creates an instance from the template right now, outside
// the schedule. The one-open-instance guard still applies.
func (h *TemplateHandler) Materialize(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		DueAt *time.Time `json:"due_at"`
	}
	// The body is optional; an empty one means due immediately plus the
	// template's due duration. A body that is present but malformed is
	// still a client error.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tmpl, err := h.templates.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get template")
		return
	}
	if tmpl == nil || tmpl.IsDeleted {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	dueAt := time.Now().UTC().Add(tmpl.DueDuration)
	if req.DueAt != nil {
		dueAt = req.DueAt.UTC()
	}

	inst, err := h.tasks.CreateFromTemplate(r.Context(), id, dueAt)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inst)
}
