package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/av-mamzikov/family-task-manager/internal/push"
	"github.com/av-mamzikov/family-task-manager/internal/store"
)

type PushHandler struct {
	subs    *store.PushStore
	members *store.FamilyMemberStore
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(subs *store.PushStore, members *store.FamilyMemberStore, service *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: subs, members: members, service: service, logger: logger}
}

type subscribeRequest struct {
	FamilyID int64  `json:"family_id"`
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe registers or refreshes a browser push subscription. The
// member link is resolved from the caller header when present.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.FamilyID <= 0 || req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "family_id, endpoint and keys are required")
		return
	}

	var memberID *int64
	if uid, ok := userID(r); ok {
		if member, err := h.members.GetByUserID(req.FamilyID, uid); err == nil && member != nil {
			memberID = &member.ID
		}
	}

	sub, err := h.subs.Upsert(req.FamilyID, memberID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.logger.Error("upsert push subscription", "family_id", req.FamilyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if err := h.subs.DeleteByEndpoint(req.Endpoint); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}
