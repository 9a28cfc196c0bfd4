package store

import (
	"testing"

	"github.com/buttoners/staffroom/internal/database"
	"github.com/buttoners/staffroom/internal/model"
)

func setupSettingsTestDB(t *testing.T) *SettingsStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSettingsStore(db)
}

func TestSettingsGetSet(t *testing.T) {
	ss := setupSettingsTestDB(t)

	value, err := ss.Get("missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if value != "" {
		t.Errorf("value = %q, want empty", value)
	}

	if err := ss.Set("s3_bucket", "staffroom-backups"); err != nil {
		t.Fatalf("set: %v", err)
	}
	// Upsert replaces.
	if err := ss.Set("s3_bucket", "staffroom-backups-v2"); err != nil {
		t.Fatalf("re-set: %v", err)
	}
	value, _ = ss.Get("s3_bucket")
	if value != "staffroom-backups-v2" {
		t.Errorf("value = %q", value)
	}
}

func TestPointsPolicyDefaults(t *testing.T) {
	ss := setupSettingsTestDB(t)

	policy, err := ss.GetPointsPolicy()
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if policy.DailyGiftLimit != 3000 {
		t.Errorf("daily limit = %d, want 3000", policy.DailyGiftLimit)
	}
	if policy.MonthlyGiftLimit != 0 || policy.RefundCooldownHours != 0 {
		t.Errorf("policy = %+v, want zero monthly/cooldown by default", policy)
	}
}

func TestPointsPolicyRoundtrip(t *testing.T) {
	ss := setupSettingsTestDB(t)

	want := model.PointsPolicy{
		DailyGiftLimit:      5000,
		MonthlyGiftLimit:    40000,
		RefundCooldownHours: 72,
		ReserveDefault:      20000,
	}
	if err := ss.SetPointsPolicy(want); err != nil {
		t.Fatalf("set policy: %v", err)
	}

	got, err := ss.GetPointsPolicy()
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if got != want {
		t.Errorf("policy = %+v, want %+v", got, want)
	}
}
