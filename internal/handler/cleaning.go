package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/buttoners/staffroom/internal/auth"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
	"github.com/buttoners/staffroom/internal/websocket"
)

type CleaningHandler struct {
	cleaningStore *store.CleaningStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewCleaningHandler(cs *store.CleaningStore, hub *websocket.Hub, logger *slog.Logger) *CleaningHandler {
	return &CleaningHandler{cleaningStore: cs, hub: hub, logger: logger}
}

func (h *CleaningHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type cleaningTaskRequest struct {
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	IntervalType    string   `json:"interval_type"`
	IntervalWeekday int      `json:"interval_weekday"`
	IntervalN       int      `json:"interval_n"`
	Checklist       []string `json:"checklist"`
	Active          bool     `json:"active"`
}

func validInterval(t string, weekday, n int) bool {
	switch t {
	case model.IntervalDaily:
		return true
	case model.IntervalWeekly:
		return weekday >= 0 && weekday <= 6
	case model.IntervalEveryN:
		return n >= 1
	default:
		return false
	}
}

func (h *CleaningHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}

	var req cleaningTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	if !validInterval(req.IntervalType, req.IntervalWeekday, req.IntervalN) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid interval"})
		return
	}

	task, err := h.cleaningStore.CreateTask(req.Title, req.Category, req.IntervalType, req.IntervalWeekday, req.IntervalN, req.Checklist, req.Active)
	if err != nil {
		h.logger.Error("create cleaning task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	h.broadcast(websocket.NewMessage("cleaning", "created", "", map[string]any{"id": task.ID}))
	writeJSON(w, http.StatusCreated, task)
}

func (h *CleaningHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.cleaningStore.ListTasks()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.CleaningTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *CleaningHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.cleaningStore.GetTaskByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	var req cleaningTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || !validInterval(req.IntervalType, req.IntervalWeekday, req.IntervalN) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task"})
		return
	}

	task, err := h.cleaningStore.UpdateTask(id, req.Title, req.Category, req.IntervalType, req.IntervalWeekday, req.IntervalN, req.Checklist, req.Active)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	h.broadcast(websocket.NewMessage("cleaning", "updated", "", map[string]any{"id": id}))
	writeJSON(w, http.StatusOK, task)
}

func (h *CleaningHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.cleaningStore.DeleteTask(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}
	h.broadcast(websocket.NewMessage("cleaning", "deleted", "", map[string]any{"id": id}))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Complete records a completion for the task by the authenticated user.
func (h *CleaningHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	task, err := h.cleaningStore.GetTaskByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	logEntry, err := h.cleaningStore.Complete(id, ac.UID, ac.Name)
	if err != nil {
		h.logger.Error("complete cleaning task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record completion"})
		return
	}

	h.broadcast(websocket.NewMessage("cleaning", "completed", "", map[string]any{"id": id}))
	writeJSON(w, http.StatusCreated, logEntry)
}

func (h *CleaningHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	taskID := int64(0)
	if s := r.URL.Query().Get("task_id"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			taskID = n
		}
	}
	logs, err := h.cleaningStore.ListLogs(taskID, 100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list logs"})
		return
	}
	if logs == nil {
		logs = []model.CleaningLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// Leaderboard returns completion counts per user for the requested
// month (YYYY-MM, defaulting to the current month).
func (h *CleaningHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if s := r.URL.Query().Get("month"); s != "" {
		parsed, err := time.ParseInLocation("2006-01", s, now.Location())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must be YYYY-MM"})
			return
		}
		from = parsed
	}
	to := from.AddDate(0, 1, 0)

	entries, err := h.cleaningStore.Leaderboard(from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load leaderboard"})
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
