package store

import (
	"testing"

	"github.com/buttoners/staffroom/internal/database"
)

func setupNoticeTestDB(t *testing.T) *NoticeStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewNoticeStore(db)
}

func TestNoticeCRUD(t *testing.T) {
	ns := setupNoticeTestDB(t)

	notice, err := ns.Create("Shift change", "New rota starts Monday", "u-1", "Boss", false)
	if err != nil {
		t.Fatalf("create notice: %v", err)
	}
	if notice.No != 1 {
		t.Errorf("no = %d, want 1", notice.No)
	}

	second, _ := ns.Create("Fridge rules", "Label your food", "u-1", "Boss", false)
	if second.No != 2 {
		t.Errorf("no = %d, want 2", second.No)
	}

	updated, err := ns.Update(notice.ID, "Shift change (final)", "Same body", true)
	if err != nil {
		t.Fatalf("update notice: %v", err)
	}
	if updated.Title != "Shift change (final)" || !updated.Pinned {
		t.Errorf("updated = %+v", updated)
	}

	if err := ns.Delete(second.ID); err != nil {
		t.Fatalf("delete notice: %v", err)
	}
	got, _ := ns.GetByID(second.ID)
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestNoticePinnedFirst(t *testing.T) {
	ns := setupNoticeTestDB(t)

	ns.Create("Old pinned", "", "u-1", "Boss", true)
	ns.Create("Unpinned newer", "", "u-1", "Boss", false)
	ns.Create("Pinned newest", "", "u-1", "Boss", true)

	notices, err := ns.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notices) != 3 {
		t.Fatalf("notices = %d, want 3", len(notices))
	}
	if !notices[0].Pinned || !notices[1].Pinned {
		t.Error("pinned notices should sort first")
	}
	if notices[0].No < notices[1].No {
		t.Error("within pinned, newer first")
	}
	if notices[2].Pinned {
		t.Error("unpinned notice should sort last")
	}
}

func TestNoticeViewCount(t *testing.T) {
	ns := setupNoticeTestDB(t)

	notice, _ := ns.Create("Read me", "", "u-1", "Boss", false)

	for want := 1; want <= 3; want++ {
		count, err := ns.IncrementViewCount(notice.ID)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != want {
			t.Errorf("count = %d, want %d", count, want)
		}
	}
}
