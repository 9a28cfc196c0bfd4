package model

// PointsPolicy is the singleton points configuration. It is read by the
// ledger engines and written only by the admin settings endpoint.
type PointsPolicy struct {
	DailyGiftLimit      int `json:"daily_gift_limit"`
	MonthlyGiftLimit    int `json:"monthly_gift_limit"`    // 0 disables the monthly cap
	RefundCooldownHours int `json:"refund_cooldown_hours"` // 0 disables the cooldown
	ReserveDefault      int `json:"reserve_default"`
}

// DefaultPointsPolicy matches the values used before the policy was
// made configurable.
func DefaultPointsPolicy() PointsPolicy {
	return PointsPolicy{DailyGiftLimit: 3000}
}
