package store

import (
	"database/sql"
	"fmt"

	"github.com/buttoners/staffroom/internal/model"
)

// TransactionStore provides read access to the point transaction log.
// All writes to the log go through the ledger engine, which owns the
// transactional invariants; this store is for history views only.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.PointTransaction, error) {
	var t model.PointTransaction
	var relatedID, refundRef sql.NullInt64
	var refunded int

	err := scanner.Scan(&t.ID, &t.UID, &t.UserName, &t.UserNickname, &t.Type,
		&t.ItemsSummary, &t.Amount, &t.Reason, &relatedID, &refunded, &refundRef, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if relatedID.Valid {
		t.RelatedID = &relatedID.Int64
	}
	if refundRef.Valid {
		t.RefundRef = &refundRef.Int64
	}
	t.Refunded = refunded != 0
	return &t, nil
}

const transactionCols = `id, uid, user_name, user_nickname, type, items_summary, amount, reason, related_id, refunded, refund_ref, created_at`

func (s *TransactionStore) GetByID(id int64) (*model.PointTransaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionCols+` FROM point_transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListByUID returns a user's transactions, newest first.
func (s *TransactionStore) ListByUID(uid string, limit int) ([]model.PointTransaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM point_transactions WHERE uid = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		uid, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListAll returns transactions across all users, newest first.
func (s *TransactionStore) ListAll(limit int) ([]model.PointTransaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM point_transactions ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]model.PointTransaction, error) {
	var txs []model.PointTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}
