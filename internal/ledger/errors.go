package ledger

import "errors"

// Sentinel errors for business-rule failures. Handlers map these to
// HTTP status codes; anything else is a 500.
var (
	// ErrInvalidCart is returned for an empty cart or a line with a
	// non-positive quantity or missing product id.
	ErrInvalidCart = errors.New("invalid cart")

	// ErrItemNotFound is returned when a cart line resolves to neither
	// a product nor an option.
	ErrItemNotFound = errors.New("item not found")

	// ErrInsufficientFunds is returned when a debit would drive a
	// balance negative. No partial debit occurs.
	ErrInsufficientFunds = errors.New("insufficient points")

	// ErrInvalidAmount is returned for non-positive gift or refund amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSelfGift is returned when sender and recipient are the same user.
	ErrSelfGift = errors.New("cannot gift to self")

	// ErrLimitExceeded is returned when a gift would exceed the daily
	// or monthly cap from the points policy.
	ErrLimitExceeded = errors.New("gift limit exceeded")

	// ErrUserNotFound is returned when a referenced user row does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrTransactionNotFound is returned when a referenced transaction
	// does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrNotAPurchase is returned when a refund targets a transaction
	// that is not a purchase.
	ErrNotAPurchase = errors.New("not a purchase")

	// ErrAlreadyRefunded is returned on a second refund of the same
	// purchase. A purchase is refundable at most once.
	ErrAlreadyRefunded = errors.New("already refunded")

	// ErrRefundExpired is returned when the purchase is older than the
	// configured refund cooldown window.
	ErrRefundExpired = errors.New("refund window closed")

	// ErrForbidden is returned on a role or ownership violation.
	ErrForbidden = errors.New("forbidden")

	// ErrEmptyRoster is returned when a distribution has no users with
	// positive hours.
	ErrEmptyRoster = errors.New("empty distribution roster")
)
