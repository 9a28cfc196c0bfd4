package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/buttoners/staffroom/internal/auth"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
	"github.com/buttoners/staffroom/internal/websocket"
)

type BoardHandler struct {
	boardStore *store.BoardStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewBoardHandler(bs *store.BoardStore, hub *websocket.Hub, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{boardStore: bs, hub: hub, logger: logger}
}

func (h *BoardHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type postRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
}

func (h *BoardHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title and content are required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	author := ac.Nickname
	if req.IsAnonymous {
		author = "anonymous"
	}

	post, err := h.boardStore.CreatePost(req.Title, req.Content, ac.UID, author, req.IsAnonymous)
	if err != nil {
		h.logger.Error("create post", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create post"})
		return
	}

	h.broadcast(websocket.NewMessage("board", "created", "", map[string]any{"id": post.ID}))
	writeJSON(w, http.StatusCreated, post)
}

func (h *BoardHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.boardStore.ListPosts()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list posts"})
		return
	}
	if posts == nil {
		posts = []model.BoardPost{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetPost returns one post and bumps its view count.
func (h *BoardHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	post, err := h.boardStore.GetPostByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get post"})
		return
	}
	if post == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}

	if err := h.boardStore.IncrementViews(id); err == nil {
		post.Views++
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *BoardHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.boardStore.GetPostByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get post"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if existing.AuthorUID != ac.UID && ac.Role != model.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your post"})
		return
	}
	if existing.Locked && ac.Role != model.RoleAdmin {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "post is locked"})
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	post, err := h.boardStore.UpdatePost(id, req.Title, req.Content)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update post"})
		return
	}

	h.broadcast(websocket.NewMessage("board", "updated", "", map[string]any{"id": id}))
	writeJSON(w, http.StatusOK, post)
}

func (h *BoardHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.boardStore.GetPostByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get post"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if existing.AuthorUID != ac.UID && ac.Role != model.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your post"})
		return
	}

	if err := h.boardStore.DeletePost(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete post"})
		return
	}
	h.broadcast(websocket.NewMessage("board", "deleted", "", map[string]any{"id": id}))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *BoardHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	likes, err := h.boardStore.IncrementLikes(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to like post"})
		return
	}
	h.broadcast(websocket.NewMessage("board", "liked", "", map[string]any{"id": id, "likes": likes}))
	writeJSON(w, http.StatusOK, map[string]any{"likes": likes})
}

type lockRequest struct {
	Locked bool `json:"locked"`
}

func (h *BoardHandler) SetLocked(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := h.boardStore.SetLocked(id, req.Locked); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update post"})
		return
	}
	h.broadcast(websocket.NewMessage("board", "updated", "", map[string]any{"id": id}))
	writeJSON(w, http.StatusOK, map[string]any{"locked": req.Locked})
}

type commentRequest struct {
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
}

func (h *BoardHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	post, err := h.boardStore.GetPostByID(postID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get post"})
		return
	}
	if post == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	if post.Locked {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "post is locked"})
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	author := ac.Nickname
	if req.IsAnonymous {
		author = "anonymous"
	}

	comment, err := h.boardStore.CreateComment(postID, ac.UID, author, req.Content, req.IsAnonymous)
	if err != nil {
		h.logger.Error("create comment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create comment"})
		return
	}

	h.broadcast(websocket.NewMessage("board", "commented", "", map[string]any{"id": postID}))
	writeJSON(w, http.StatusCreated, comment)
}

func (h *BoardHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	comments, err := h.boardStore.ListComments(postID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list comments"})
		return
	}
	if comments == nil {
		comments = []model.BoardComment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *BoardHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	comment, err := h.boardStore.GetCommentByID(commentID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get comment"})
		return
	}
	if comment == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "comment not found"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if comment.AuthorUID != ac.UID && ac.Role != model.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your comment"})
		return
	}

	if err := h.boardStore.DeleteComment(commentID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete comment"})
		return
	}
	h.broadcast(websocket.NewMessage("board", "commented", "", map[string]any{"id": comment.PostID}))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
