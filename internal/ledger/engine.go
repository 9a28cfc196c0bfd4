// Package ledger owns every mutation of user point balances.
//
// Each operation runs as a single SQLite transaction covering the
// balance read, the balance write, the transaction log append, and the
// idempotency record, so either all of it commits or none of it does.
// Balances must never be written outside this package: a direct write
// would bypass the log and the idempotency guard.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/buttoners/staffroom/internal/catalog"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
)

// CartLine is one purchase request line. ProductID may name a product
// or a product option.
type CartLine struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// Engine executes point transactions against the shared database.
type Engine struct {
	db       *sql.DB
	settings *store.SettingsStore
	logger   *slog.Logger
}

func New(db *sql.DB, settings *store.SettingsStore, logger *slog.Logger) *Engine {
	return &Engine{db: db, settings: settings, logger: logger}
}

// checkIdempotency returns (storedBalance, true) if the (uid, key) pair
// has been seen before. Must be called inside the transaction that
// would perform the mutation.
func checkIdempotency(ctx context.Context, tx *sql.Tx, uid, key string) (int, bool, error) {
	var balance int
	err := tx.QueryRowContext(ctx,
		`SELECT result_balance FROM idempotency_records WHERE uid = ? AND key = ?`,
		uid, key,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("check idempotency: %w", err)
	}
	return balance, true, nil
}

func recordIdempotency(ctx context.Context, tx *sql.Tx, uid, key, opType string, resultBalance int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO idempotency_records (uid, key, op_type, result_balance, created_at) VALUES (?, ?, ?, ?, ?)`,
		uid, key, opType, resultBalance, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record idempotency: %w", err)
	}
	return nil
}

type userRow struct {
	points   int
	name     string
	nickname string
}

func getUserRow(ctx context.Context, tx *sql.Tx, uid string) (*userRow, error) {
	var u userRow
	err := tx.QueryRowContext(ctx,
		`SELECT points, name, nickname FROM users WHERE uid = ?`, uid,
	).Scan(&u.points, &u.name, &u.nickname)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", uid, err)
	}
	return &u, nil
}

func setBalance(ctx context.Context, tx *sql.Tx, uid string, points int) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET points = ? WHERE uid = ?`, points, uid)
	if err != nil {
		return fmt.Errorf("update balance for %s: %w", uid, err)
	}
	return nil
}

// appendTransaction inserts one log row and returns its id. created_at
// is always written from Go so timestamps compare cleanly with bound
// query parameters.
func appendTransaction(ctx context.Context, tx *sql.Tx, t model.PointTransaction) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO point_transactions (uid, user_name, user_nickname, type, items_summary, amount, reason, related_id, refunded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		t.UID, t.UserName, t.UserNickname, t.Type, t.ItemsSummary, t.Amount, t.Reason, t.RelatedID, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("append %s transaction: %w", t.Type, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Purchase debits a user's balance for the resolved cart and appends a
// purchase transaction. With an idempotency key, a retried call returns
// the previously computed balance without re-debiting.
func (e *Engine) Purchase(ctx context.Context, uid string, cart []CartLine, idemKey string) (int, error) {
	if len(cart) == 0 {
		return 0, fmt.Errorf("%w: empty cart", ErrInvalidCart)
	}
	for _, line := range cart {
		if line.ProductID == "" || line.Qty <= 0 {
			return 0, fmt.Errorf("%w: bad line %q x%d", ErrInvalidCart, line.ProductID, line.Qty)
		}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin purchase: %w", err)
	}
	defer tx.Rollback()

	if idemKey != "" {
		balance, seen, err := checkIdempotency(ctx, tx, uid, idemKey)
		if err != nil {
			return 0, err
		}
		if seen {
			return balance, nil
		}
	}

	user, err := getUserRow(ctx, tx, uid)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, uid)
	}

	totalCost := 0
	parts := make([]string, 0, len(cart))
	for _, line := range cart {
		entry, err := catalog.Resolve(ctx, tx, line.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrItemNotFound, line.ProductID)
		}
		if err != nil {
			return 0, err
		}
		totalCost += entry.UnitPrice * line.Qty
		parts = append(parts, fmt.Sprintf("%sx%d", entry.Name, line.Qty))
	}

	if user.points < totalCost {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, user.points, totalCost)
	}

	newBalance := user.points - totalCost
	if err := setBalance(ctx, tx, uid, newBalance); err != nil {
		return 0, err
	}

	if _, err := appendTransaction(ctx, tx, model.PointTransaction{
		UID:          uid,
		UserName:     user.name,
		UserNickname: user.nickname,
		Type:         model.TxPurchase,
		ItemsSummary: strings.Join(parts, ", "),
		Amount:       -totalCost,
	}); err != nil {
		return 0, err
	}

	if idemKey != "" {
		if err := recordIdempotency(ctx, tx, uid, idemKey, model.TxPurchase, newBalance); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purchase: %w", err)
	}

	e.logger.Info("purchase", "uid", uid, "cost", totalCost, "balance", newBalance)
	return newBalance, nil
}

// sentInWindow sums points gifted away by uid since the given time.
// Gift-sent amounts are stored negative; the result is positive.
func (e *Engine) sentInWindow(ctx context.Context, uid string, since time.Time) (int, error) {
	var sent int
	err := e.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(-amount), 0) FROM point_transactions
		 WHERE uid = ? AND type = ? AND created_at >= ?`,
		uid, model.TxGiftSent, since.UTC(),
	).Scan(&sent)
	if err != nil {
		return 0, fmt.Errorf("sum gifts sent: %w", err)
	}
	return sent, nil
}

// Gift atomically moves points from one user to another, recording a
// gift-sent row for the sender and a gift-received row for the
// recipient. Daily and monthly caps come from the points policy and
// are computed from the transaction log, which is the source of truth
// for amounts already sent.
func (e *Engine) Gift(ctx context.Context, fromUID, toUID string, amount int, note, idemKey string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if fromUID == toUID {
		return 0, ErrSelfGift
	}

	policy, err := e.settings.GetPointsPolicy()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sentToday, err := e.sentInWindow(ctx, fromUID, startOfDay)
	if err != nil {
		return 0, err
	}
	if sentToday+amount > policy.DailyGiftLimit {
		return 0, fmt.Errorf("%w: daily limit %dP, remaining %dP",
			ErrLimitExceeded, policy.DailyGiftLimit, max(0, policy.DailyGiftLimit-sentToday))
	}

	if policy.MonthlyGiftLimit > 0 {
		startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		sentMonth, err := e.sentInWindow(ctx, fromUID, startOfMonth)
		if err != nil {
			return 0, err
		}
		if sentMonth+amount > policy.MonthlyGiftLimit {
			return 0, fmt.Errorf("%w: monthly limit %dP, remaining %dP",
				ErrLimitExceeded, policy.MonthlyGiftLimit, max(0, policy.MonthlyGiftLimit-sentMonth))
		}
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin gift: %w", err)
	}
	defer tx.Rollback()

	if idemKey != "" {
		balance, seen, err := checkIdempotency(ctx, tx, fromUID, idemKey)
		if err != nil {
			return 0, err
		}
		if seen {
			return balance, nil
		}
	}

	sender, err := getUserRow(ctx, tx, fromUID)
	if err != nil {
		return 0, err
	}
	if sender == nil {
		return 0, fmt.Errorf("%w: sender %s", ErrUserNotFound, fromUID)
	}
	recipient, err := getUserRow(ctx, tx, toUID)
	if err != nil {
		return 0, err
	}
	if recipient == nil {
		return 0, fmt.Errorf("%w: recipient %s", ErrUserNotFound, toUID)
	}

	if sender.points < amount {
		return 0, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, sender.points, amount)
	}

	newSenderBalance := sender.points - amount
	if err := setBalance(ctx, tx, fromUID, newSenderBalance); err != nil {
		return 0, err
	}
	if err := setBalance(ctx, tx, toUID, recipient.points+amount); err != nil {
		return 0, err
	}

	if _, err := appendTransaction(ctx, tx, model.PointTransaction{
		UID:          fromUID,
		UserName:     sender.name,
		UserNickname: sender.nickname,
		Type:         model.TxGiftSent,
		ItemsSummary: recipient.name,
		Amount:       -amount,
		Reason:       note,
	}); err != nil {
		return 0, err
	}
	if _, err := appendTransaction(ctx, tx, model.PointTransaction{
		UID:          toUID,
		UserName:     recipient.name,
		UserNickname: recipient.nickname,
		Type:         model.TxGiftReceived,
		ItemsSummary: sender.name,
		Amount:       amount,
		Reason:       note,
	}); err != nil {
		return 0, err
	}

	if idemKey != "" {
		if err := recordIdempotency(ctx, tx, fromUID, idemKey, "gift", newSenderBalance); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit gift: %w", err)
	}

	e.logger.Info("gift", "from", fromUID, "to", toUID, "amount", amount, "balance", newSenderBalance)
	return newSenderBalance, nil
}

// Refund credits a prior purchase back onto the original purchaser's
// balance. A purchase can be refunded at most once: the original row
// gets refunded=1 plus a forward reference to the refund row, and the
// refund row points back via related_id.
func (e *Engine) Refund(ctx context.Context, requesterUID, requesterRole string, purchaseID int64, amount int, reason string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	policy, err := e.settings.GetPointsPolicy()
	if err != nil {
		return 0, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin refund: %w", err)
	}
	defer tx.Rollback()

	var (
		ownerUID, txType, itemsSummary string
		ownerName, ownerNickname       string
		refunded                       int
		createdAt                      time.Time
	)
	err = tx.QueryRowContext(ctx,
		`SELECT uid, user_name, user_nickname, type, items_summary, refunded, created_at
		 FROM point_transactions WHERE id = ?`, purchaseID,
	).Scan(&ownerUID, &ownerName, &ownerNickname, &txType, &itemsSummary, &refunded, &createdAt)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %d", ErrTransactionNotFound, purchaseID)
	}
	if err != nil {
		return 0, fmt.Errorf("get purchase %d: %w", purchaseID, err)
	}

	if txType != model.TxPurchase {
		return 0, ErrNotAPurchase
	}
	if refunded != 0 {
		return 0, ErrAlreadyRefunded
	}
	if ownerUID != requesterUID && requesterRole != model.RoleAdmin {
		return 0, ErrForbidden
	}
	if policy.RefundCooldownHours > 0 {
		cutoff := time.Now().UTC().Add(-time.Duration(policy.RefundCooldownHours) * time.Hour)
		if createdAt.Before(cutoff) {
			return 0, fmt.Errorf("%w: older than %dh", ErrRefundExpired, policy.RefundCooldownHours)
		}
	}

	// Credit goes to the purchaser, not the requester: an admin may
	// refund on a user's behalf.
	owner, err := getUserRow(ctx, tx, ownerUID)
	if err != nil {
		return 0, err
	}
	if owner == nil {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, ownerUID)
	}

	newBalance := owner.points + amount
	if err := setBalance(ctx, tx, ownerUID, newBalance); err != nil {
		return 0, err
	}

	refundID, err := appendTransaction(ctx, tx, model.PointTransaction{
		UID:          ownerUID,
		UserName:     ownerName,
		UserNickname: ownerNickname,
		Type:         model.TxRefund,
		ItemsSummary: itemsSummary,
		Amount:       amount,
		Reason:       reason,
		RelatedID:    &purchaseID,
	})
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE point_transactions SET refunded = 1, refund_ref = ? WHERE id = ?`,
		refundID, purchaseID,
	); err != nil {
		return 0, fmt.Errorf("mark refunded: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit refund: %w", err)
	}

	e.logger.Info("refund", "purchase_id", purchaseID, "uid", ownerUID, "amount", amount, "balance", newBalance)
	return newBalance, nil
}

// Adjust applies a signed delta to a user's balance. Admin only. No
// affordability check: an adjustment may drive a balance anywhere,
// including making up a deficit.
func (e *Engine) Adjust(ctx context.Context, actorRole, targetUID string, delta int, reason string) (int, error) {
	if actorRole != model.RoleAdmin {
		return 0, ErrForbidden
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin adjust: %w", err)
	}
	defer tx.Rollback()

	target, err := getUserRow(ctx, tx, targetUID)
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, targetUID)
	}

	newBalance := target.points + delta
	if err := setBalance(ctx, tx, targetUID, newBalance); err != nil {
		return 0, err
	}

	if _, err := appendTransaction(ctx, tx, model.PointTransaction{
		UID:          targetUID,
		UserName:     target.name,
		UserNickname: target.nickname,
		Type:         model.TxAdminAdjust,
		ItemsSummary: "admin adjustment",
		Amount:       delta,
		Reason:       reason,
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit adjust: %w", err)
	}

	e.logger.Info("adjust", "uid", targetUID, "delta", delta, "balance", newBalance)
	return newBalance, nil
}
