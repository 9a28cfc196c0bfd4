package model

import "time"

// Transaction types. Amounts are signed: debits negative, credits positive.
const (
	TxPurchase     = "purchase"
	TxRefund       = "refund"
	TxGiftSent     = "gift-sent"
	TxGiftReceived = "gift-received"
	TxAdminAdjust  = "admin-adjust"
	TxMonthlySet   = "monthly-set"
)

// PointTransaction is one row of the append-only transaction log.
// Rows are never mutated after insert, with one exception: a purchase
// gets Refunded/RefundRef set when it is refunded.
type PointTransaction struct {
	ID           int64     `json:"id"`
	UID          string    `json:"uid"`
	UserName     string    `json:"user_name"`
	UserNickname string    `json:"user_nickname"`
	Type         string    `json:"type"`
	ItemsSummary string    `json:"items_summary"`
	Amount       int       `json:"amount"`
	Reason       string    `json:"reason,omitempty"`
	RelatedID    *int64    `json:"related_id,omitempty"`
	Refunded     bool      `json:"refunded"`
	RefundRef    *int64    `json:"refund_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
