package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/buttoners/staffroom/internal/auth"
	"github.com/buttoners/staffroom/internal/middleware"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"

	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookieName = "staffroom_session"
	loginAttemptLimit = 3
	loginBlockWindow  = 5 * time.Minute
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	limiter      *middleware.RateLimiter
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, limiter *middleware.RateLimiter, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		limiter:      limiter,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	PIN      string `json:"pin"`
}

func newUID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Name == "" || req.Nickname == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and nickname are required"})
		return
	}
	if len(req.PIN) != 4 || !isDigits(req.PIN) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "PIN must be exactly 4 digits"})
		return
	}

	existing, err := h.userStore.GetByNickname(req.Nickname)
	if err != nil {
		h.logger.Error("signup lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "nickname already taken"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	uid, err := newUID()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	user, err := h.userStore.Create(uid, req.Name, req.Nickname, string(hash), model.RoleButtoner)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create account"})
		return
	}

	h.startSession(w, user)
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Nickname string `json:"nickname"`
	PIN      string `json:"pin"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Nickname == "" || req.PIN == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nickname and PIN are required"})
		return
	}

	// Keyed by client IP so a third party cannot lock out a known
	// nickname with bad PINs.
	limitKey := "login:" + middleware.RealIP(r)
	if !h.limiter.Allow(limitKey, loginAttemptLimit, loginBlockWindow) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts, try again later"})
		return
	}

	hash, err := h.userStore.GetPasswordHash(req.Nickname)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	// Same error for unknown nickname and wrong PIN so nicknames
	// cannot be probed.
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect nickname or PIN"})
		return
	}

	user, err := h.userStore.GetByNickname(req.Nickname)
	if err != nil || user == nil {
		h.logger.Error("login user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	h.limiter.Reset(limitKey)

	if err := h.userStore.RecordLogin(user.UID, user.Nickname, middleware.RealIP(r)); err != nil {
		h.logger.Warn("record login", "error", err)
	}

	h.startSession(w, user)
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user *model.User) {
	sess, err := h.sessionStore.Create(user.UID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.sessionStore.GetByToken(cookie.Value); err == nil && sess != nil {
			h.sessionStore.Delete(sess.ID)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user, balance included.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid := auth.UID(r.Context())
	user, err := h.userStore.GetByUID(uid)
	if err != nil || user == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load user"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}
