package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/av-mamzikov/family-task-manager/internal/model"
	"github.com/av-mamzikov/family-task-manager/internal/store"
)

type SpotHandler struct {
	spots    *store.SpotStore
	members  *store.FamilyMemberStore
	families *store.FamilyStore
	logger   *slog.Logger
}

func NewSpotHandler(spots *store.SpotStore, members *store.FamilyMemberStore, families *store.FamilyStore, logger *slog.Logger) *SpotHandler {
	return &SpotHandler{spots: spots, members: members, families: families, logger: logger}
}

type spotRequest struct {
	FamilyID int64  `json:"family_id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
}

func (h *SpotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req spotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Type = strings.TrimSpace(req.Type)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	family, err := h.families.GetByID(req.FamilyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check family")
		return
	}
	if family == nil {
		writeError(w, http.StatusBadRequest, "family not found")
		return
	}

	spot, err := h.spots.Create(req.FamilyID, req.Type, req.Name)
	if err != nil {
		h.logger.Error("create spot", "family_id", req.FamilyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create spot")
		return
	}
	writeJSON(w, http.StatusCreated, spot)
}

func (h *SpotHandler) List(w http.ResponseWriter, r *http.Request) {
	familyID, ok := parseFamilyIDQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "family_id is required")
		return
	}

	spots, err := h.spots.ListByFamily(familyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list spots")
		return
	}
	if spots == nil {
		spots = []model.Spot{}
	}
	writeJSON(w, http.StatusOK, spots)
}

func (h *SpotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	spot, err := h.spots.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get spot")
		return
	}
	if spot == nil || spot.IsDeleted {
		writeError(w, http.StatusNotFound, "spot not found")
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

// SetResponsibleMembers replaces the spot's responsible member set, the
// primary pool for auto-assignment of its tasks.
func (h *SpotHandler) SetResponsibleMembers(w http.ResponseWriter, r *http.Request) {
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

	spot, err := h.spots.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get spot")
		return
	}
	if spot == nil || spot.IsDeleted {
		writeError(w, http.StatusNotFound, "spot not found")
		return
	}

	for _, mid := range req.MemberIDs {
		member, err := h.members.GetByID(mid)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to check member")
			return
		}
		if member == nil || member.FamilyID != spot.FamilyID {
			writeError(w, http.StatusBadRequest, "member does not belong to the spot's family")
			return
		}
	}

	if err := h.spots.SetResponsibleMembers(id, req.MemberIDs); err != nil {
		h.logger.Error("set spot members", "spot_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set responsible members")
		return
	}

	spot, err = h.spots.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get spot")
		return
	}
	writeJSON(w, http.StatusOK, spot)
}

func (h *SpotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	spot, err := h.spots.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get spot")
		return
	}
	if spot == nil || spot.IsDeleted {
		writeError(w, http.StatusNotFound, "spot not found")
		return
	}

	if err := h.spots.Delete(id); err != nil {
		h.logger.Error("delete spot", "spot_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete spot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
