package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/buttoners/staffroom/internal/auth"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/push"
	"github.com/buttoners/staffroom/internal/store"
	"github.com/buttoners/staffroom/internal/websocket"
)

type NoticeHandler struct {
	noticeStore *store.NoticeStore
	pushStore   *store.PushStore
	pushService *push.Service
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewNoticeHandler(ns *store.NoticeStore, ps *store.PushStore, svc *push.Service, hub *websocket.Hub, logger *slog.Logger) *NoticeHandler {
	return &NoticeHandler{noticeStore: ns, pushStore: ps, pushService: svc, hub: hub, logger: logger}
}

func (h *NoticeHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// notifyPinned pushes a notification for a pinned notice to every
// subscribed browser. Expired subscriptions are pruned as they fail.
func (h *NoticeHandler) notifyPinned(notice *model.Notice) {
	if h.pushService == nil {
		return
	}
	subs, err := h.pushStore.ListAll()
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		return
	}
	for _, id := range h.pushService.Fanout(subs, push.NoticePayload(notice)) {
		if err := h.pushStore.DeleteSubscription(id); err != nil {
			h.logger.Warn("prune push subscription", "id", id, "error", err)
		}
	}
}

type noticeRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Pinned bool   `json:"pinned"`
}

func (h *NoticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}

	var req noticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	notice, err := h.noticeStore.Create(req.Title, req.Body, ac.UID, ac.Name, req.Pinned)
	if err != nil {
		h.logger.Error("create notice", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create notice"})
		return
	}

	h.broadcast(websocket.NewMessage("notice", "created", "", map[string]any{"id": notice.ID}))
	if notice.Pinned {
		go h.notifyPinned(notice)
	}
	writeJSON(w, http.StatusCreated, notice)
}

func (h *NoticeHandler) List(w http.ResponseWriter, r *http.Request) {
	notices, err := h.noticeStore.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list notices"})
		return
	}
	if notices == nil {
		notices = []model.Notice{}
	}
	writeJSON(w, http.StatusOK, notices)
}

// Get returns one notice and bumps its view count.
func (h *NoticeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	notice, err := h.noticeStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get notice"})
		return
	}
	if notice == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notice not found"})
		return
	}

	if count, err := h.noticeStore.IncrementViewCount(id); err == nil {
		notice.ViewCount = count
	}
	writeJSON(w, http.StatusOK, notice)
}

func (h *NoticeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.noticeStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get notice"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notice not found"})
		return
	}

	var req noticeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	notice, err := h.noticeStore.Update(id, req.Title, req.Body, req.Pinned)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update notice"})
		return
	}

	h.broadcast(websocket.NewMessage("notice", "updated", "", map[string]any{"id": id}))
	if notice.Pinned && !existing.Pinned {
		go h.notifyPinned(notice)
	}
	writeJSON(w, http.StatusOK, notice)
}

func (h *NoticeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.noticeStore.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete notice"})
		return
	}
	h.broadcast(websocket.NewMessage("notice", "deleted", "", map[string]any{"id": id}))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
