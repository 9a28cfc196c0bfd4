package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/buttoners/staffroom/internal/auth"
	"github.com/buttoners/staffroom/internal/ledger"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
	"github.com/buttoners/staffroom/internal/websocket"
)

const idempotencyHeader = "X-Idempotency-Key"

type PointsHandler struct {
	engine  *ledger.Engine
	txStore *store.TransactionStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewPointsHandler(engine *ledger.Engine, ts *store.TransactionStore, hub *websocket.Hub, logger *slog.Logger) *PointsHandler {
	return &PointsHandler{engine: engine, txStore: ts, hub: hub, logger: logger}
}

func (h *PointsHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// sendTo pushes a message only to the given user's open tabs.
func (h *PointsHandler) sendTo(uid string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.SendToUID(uid, msg)
	}
}

// writeLedgerError maps the engine's sentinel errors onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidCart),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSelfGift),
		errors.Is(err, ledger.ErrNotAPurchase),
		errors.Is(err, ledger.ErrEmptyRoster),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrLimitExceeded),
		errors.Is(err, ledger.ErrAlreadyRefunded),
		errors.Is(err, ledger.ErrRefundExpired):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrItemNotFound),
		errors.Is(err, ledger.ErrUserNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrForbidden):
		status = http.StatusForbidden
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type purchaseRequest struct {
	Items []ledger.CartLine `json:"items"`
}

func (h *PointsHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	uid := auth.UID(r.Context())
	balance, err := h.engine.Purchase(r.Context(), uid, req.Items, r.Header.Get(idempotencyHeader))
	if err != nil {
		if !errors.Is(err, ledger.ErrInsufficientFunds) {
			h.logger.Warn("purchase", "uid", uid, "error", err)
		}
		writeLedgerError(w, err)
		return
	}

	h.sendTo(uid, websocket.BalanceMessage(uid, balance))
	writeJSON(w, http.StatusOK, map[string]any{"points": balance})
}

type giftRequest struct {
	ToUID  string `json:"to_uid"`
	Amount int    `json:"amount"`
	Note   string `json:"note"`
}

func (h *PointsHandler) Gift(w http.ResponseWriter, r *http.Request) {
	var req giftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	uid := auth.UID(r.Context())
	balance, err := h.engine.Gift(r.Context(), uid, req.ToUID, req.Amount, req.Note, r.Header.Get(idempotencyHeader))
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.sendTo(uid, websocket.BalanceMessage(uid, balance))
	h.sendTo(req.ToUID, websocket.NewMessage("balance", "updated", req.ToUID, nil))
	writeJSON(w, http.StatusOK, map[string]any{"points": balance})
}

type refundRequest struct {
	TransactionID int64  `json:"transaction_id"`
	Amount        int    `json:"amount"`
	Reason        string `json:"reason"`
}

func (h *PointsHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	balance, err := h.engine.Refund(r.Context(), ac.UID, ac.Role, req.TransactionID, req.Amount, req.Reason)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	h.broadcast(websocket.NewMessage("transaction", "refunded", "", map[string]any{"id": req.TransactionID}))
	writeJSON(w, http.StatusOK, map[string]any{"points": balance})
}

// Transactions lists the authenticated user's transaction history,
// newest first.
func (h *PointsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	uid := auth.UID(r.Context())
	txs, err := h.txStore.ListByUID(uid, 100)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list transactions"})
		return
	}
	if txs == nil {
		txs = []model.PointTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}
