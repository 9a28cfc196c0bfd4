package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/buttoners/staffroom/internal/auth"
	"github.com/buttoners/staffroom/internal/backup"
	"github.com/buttoners/staffroom/internal/ledger"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
	"github.com/buttoners/staffroom/internal/websocket"
)

// AdminHandler carries the endpoints mounted behind RequireAdmin.
type AdminHandler struct {
	engine        *ledger.Engine
	userStore     *store.UserStore
	txStore       *store.TransactionStore
	settingsStore *store.SettingsStore
	backupStore   *store.BackupStore
	backups       *backup.Manager
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewAdminHandler(
	engine *ledger.Engine,
	us *store.UserStore,
	ts *store.TransactionStore,
	ss *store.SettingsStore,
	bs *store.BackupStore,
	bm *backup.Manager,
	hub *websocket.Hub,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		engine:        engine,
		userStore:     us,
		txStore:       ts,
		settingsStore: ss,
		backupStore:   bs,
		backups:       bm,
		hub:           hub,
		logger:        logger,
	}
}

func (h *AdminHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *AdminHandler) sendTo(uid string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.SendToUID(uid, msg)
	}
}

type adjustRequest struct {
	UID    string `json:"uid"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

func (h *AdminHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be non-zero"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	balance, err := h.engine.Adjust(r.Context(), ac.Role, req.UID, req.Delta, req.Reason)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.sendTo(req.UID, websocket.BalanceMessage(req.UID, balance))
	writeJSON(w, http.StatusOK, map[string]any{"uid": req.UID, "points": balance})
}

type distributeRequest struct {
	Entries []ledger.HoursEntry `json:"entries"`
	Reserve *int                `json:"reserve"`
	DryRun  bool                `json:"dry_run"`
}

// Distribute runs (or previews) the monthly point allocation. With
// dry_run the shares are computed and returned without touching any
// balance.
func (h *AdminHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	policy, err := h.settingsStore.GetPointsPolicy()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load policy"})
		return
	}
	reserve := policy.ReserveDefault
	if req.Reserve != nil {
		reserve = *req.Reserve
	}

	if req.DryRun {
		pool := ledger.PoolForHeadcount(len(req.Entries))
		shares, err := ledger.ComputeShares(req.Entries, pool, reserve)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pool": pool, "reserve": reserve, "shares": shares})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	shares, err := h.engine.Distribute(r.Context(), ac.Role, req.Entries, reserve)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("balance", "distributed", "", nil))
	writeJSON(w, http.StatusOK, map[string]any{"shares": shares})
}

func (h *AdminHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.settingsStore.GetPointsPolicy()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load policy"})
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (h *AdminHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var policy model.PointsPolicy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if policy.DailyGiftLimit < 0 || policy.MonthlyGiftLimit < 0 || policy.RefundCooldownHours < 0 || policy.ReserveDefault < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "policy values must be >= 0"})
		return
	}
	if err := h.settingsStore.SetPointsPolicy(policy); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save policy"})
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// ListStaff returns the roster with balances. An optional ?role=
// filter narrows it, e.g. role=buttoner when preparing a monthly
// distribution.
func (h *AdminHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	var (
		users []model.User
		err   error
	)
	switch role := r.URL.Query().Get("role"); role {
	case "":
		users, err = h.userStore.List()
	case model.RoleAdmin, model.RoleButtoner:
		users, err = h.userStore.ListByRole(role)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown role"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list staff"})
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// AllTransactions lists every user's transactions, newest first.
func (h *AdminHandler) AllTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	txs, err := h.txStore.ListAll(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list transactions"})
		return
	}
	if txs == nil {
		txs = []model.PointTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

type backupRequest struct {
	Passphrase string `json:"passphrase"`
}

func (h *AdminHandler) RunBackup(w http.ResponseWriter, r *http.Request) {
	var req backupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	record, err := h.backups.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		h.logger.Error("backup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *AdminHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backupStore.List(50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list backups"})
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

func (h *AdminHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	body, size, err := h.backups.Download(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=backup-%d.db.enc", id))
	io.Copy(w, body)
}

type s3ConfigRequest struct {
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// UpdateS3Config persists the S3 target and hot-reloads the backup
// manager.
func (h *AdminHandler) UpdateS3Config(w http.ResponseWriter, r *http.Request) {
	var req s3ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	pairs := map[string]string{
		"s3_endpoint":   req.Endpoint,
		"s3_bucket":     req.Bucket,
		"s3_region":     req.Region,
		"s3_access_key": req.AccessKey,
		"s3_secret_key": req.SecretKey,
	}
	for key, value := range pairs {
		if err := h.settingsStore.Set(key, value); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save settings"})
			return
		}
	}

	h.backups.Configure(backup.S3Config{
		Endpoint:  req.Endpoint,
		Bucket:    req.Bucket,
		Region:    req.Region,
		AccessKey: req.AccessKey,
		SecretKey: req.SecretKey,
	})
	writeJSON(w, http.StatusOK, map[string]any{"configured": h.backups.Configured()})
}
