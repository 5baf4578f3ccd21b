package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/schedule"
	"github.com/av-mamzikov/family-task-manager/internal/store"
)

type FamilyHandler struct {
	families *store.FamilyStore
	members  *store.FamilyMemberStore
	logger   *slog.Logger
}

func NewFamilyHandler(families *store.FamilyStore, members *store.FamilyMemberStore, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{families: families, members: members, logger: logger}
}

type familyRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !schedule.ValidTimezone(req.Timezone) {
		writeError(w, http.StatusBadRequest, "timezone must be a valid IANA identifier")
		return
	}

	family, err := h.families.Create(req.Name, req.Timezone)
	if err != nil {
		h.logger.Error("create family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family")
		return
	}
	writeJSON(w, http.StatusCreated, family)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	family, err := h.families.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if family == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}
	writeJSON(w, http.StatusOK, family)
}

// UpdateTimezone changes the family timezone. Already-materialized
// instances keep their UTC due times; only future schedule evaluation
// uses the new zone.
func (h *FamilyHandler) UpdateTimezone(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Timezone string `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !schedule.ValidTimezone(req.Timezone) {
		writeError(w, http.StatusBadRequest, "timezone must be a valid IANA identifier")
		return
	}

	family, err := h.families.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if family == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	if err := h.families.SetTimezone(id, req.Timezone); err != nil {
		h.logger.Error("update family timezone", "family_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update timezone")
		return
	}

	family, err = h.families.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	writeJSON(w, http.StatusOK, family)
}

type memberRequest struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func (h *FamilyHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	familyID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	role := model.Role(req.Role)
	switch role {
	case model.RoleAdmin, model.RoleAdult, model.RoleChild:
	default:
		writeError(w, http.StatusBadRequest, "role must be admin, adult or child")
		return
	}

	family, err := h.families.GetByID(familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if family == nil {
		writeError(w, http.StatusNotFound, "family not found")
		return
	}

	member, err := h.members.Create(familyID, req.UserID, req.Name, role)
	if err != nil {
		h.logger.Error("create family member", "family_id", familyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *FamilyHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	familyID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	members, err := h.members.ListByFamily(familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

// DeactivateMember soft-deactivates a member. History keeps the member
// reference; the assignment selector stops considering them.
func (h *FamilyHandler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	member, err := h.members.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	if err := h.members.Deactivate(id); err != nil {
		h.logger.Error("deactivate member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to deactivate member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
