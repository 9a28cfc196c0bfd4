package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/buttoners/staffroom/internal/model"
)

// Points policy keys.
const (
	keyDailyGiftLimit      = "points_daily_gift_limit"
	keyMonthlyGiftLimit    = "points_monthly_gift_limit"
	keyRefundCooldownHours = "points_refund_cooldown_hours"
	keyReserveDefault      = "points_reserve_default"
)

var s3Keys = []string{
	"s3_endpoint",
	"s3_bucket",
	"s3_region",
	"s3_access_key",
	"s3_secret_key",
}

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the value for key, or "" when the key has never been set.
func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (s *SettingsStore) getInt(key string, fallback int) (int, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get setting %q: %w", key, err)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, nil
	}
	return n, nil
}

// GetPointsPolicy returns the points policy, falling back to defaults
// for any key that has never been set.
func (s *SettingsStore) GetPointsPolicy() (model.PointsPolicy, error) {
	def := model.DefaultPointsPolicy()

	p := model.PointsPolicy{}
	var err error
	if p.DailyGiftLimit, err = s.getInt(keyDailyGiftLimit, def.DailyGiftLimit); err != nil {
		return def, err
	}
	if p.MonthlyGiftLimit, err = s.getInt(keyMonthlyGiftLimit, def.MonthlyGiftLimit); err != nil {
		return def, err
	}
	if p.RefundCooldownHours, err = s.getInt(keyRefundCooldownHours, def.RefundCooldownHours); err != nil {
		return def, err
	}
	if p.ReserveDefault, err = s.getInt(keyReserveDefault, def.ReserveDefault); err != nil {
		return def, err
	}
	return p, nil
}

func (s *SettingsStore) SetPointsPolicy(p model.PointsPolicy) error {
	pairs := map[string]int{
		keyDailyGiftLimit:      p.DailyGiftLimit,
		keyMonthlyGiftLimit:    p.MonthlyGiftLimit,
		keyRefundCooldownHours: p.RefundCooldownHours,
		keyReserveDefault:      p.ReserveDefault,
	}
	for key, v := range pairs {
		if err := s.Set(key, strconv.Itoa(v)); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsStore) GetS3Settings() (map[string]string, error) {
	settings := make(map[string]string)
	for _, key := range s3Keys {
		var value string
		err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get s3 setting %q: %w", key, err)
		}
		settings[key] = value
	}
	return settings, nil
}
