package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
	"github.com/buttoners/staffroom/internal/websocket"
)

type GameHandler struct {
	gameStore *store.GameStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewGameHandler(gs *store.GameStore, hub *websocket.Hub, logger *slog.Logger) *GameHandler {
	return &GameHandler{gameStore: gs, hub: hub, logger: logger}
}

func (h *GameHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type gameItemRequest struct {
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Tags   []string `json:"tags"`
	Notes  string   `json:"notes"`
}

func validGameStatus(s string) bool {
	return s == model.GameStatusOK || s == model.GameStatusRepair || s == model.GameStatusMissing
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req gameItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Status == "" {
		req.Status = model.GameStatusOK
	}
	if !validGameStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	item, err := h.gameStore.Create(req.Name, req.Status, req.Tags, req.Notes)
	if err != nil {
		h.logger.Error("create game item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create item"})
		return
	}

	h.broadcast(websocket.NewMessage("game", "created", "", map[string]any{"id": item.ID}))
	writeJSON(w, http.StatusCreated, item)
}

func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.gameStore.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
		return
	}
	if items == nil {
		items = []model.GameItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.gameStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get item"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	var req gameItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || !validGameStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item"})
		return
	}

	item, err := h.gameStore.Update(id, req.Name, req.Status, req.Tags, req.Notes)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update item"})
		return
	}

	h.broadcast(websocket.NewMessage("game", "updated", "", map[string]any{"id": id}))
	writeJSON(w, http.StatusOK, item)
}

func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.gameStore.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete item"})
		return
	}
	h.broadcast(websocket.NewMessage("game", "deleted", "", map[string]any{"id": id}))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
