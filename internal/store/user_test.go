package store

import (
	"testing"

	"github.com/buttoners/staffroom/internal/database"
	"github.com/buttoners/staffroom/internal/model"
)

func setupUserTestDB(t *testing.T) (*UserStore, *ProductStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db), NewProductStore(db)
}

func TestUserCreateAndGet(t *testing.T) {
	us, _ := setupUserTestDB(t)

	user, err := us.Create("u-1", "Mina Park", "mina", "hashed", model.RoleButtoner)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Points != 0 {
		t.Errorf("points = %d, want 0 for new account", user.Points)
	}
	if user.Role != model.RoleButtoner {
		t.Errorf("role = %q, want buttoner", user.Role)
	}

	got, err := us.GetByNickname("mina")
	if err != nil {
		t.Fatalf("get by nickname: %v", err)
	}
	if got == nil || got.UID != "u-1" {
		t.Fatalf("got = %+v, want uid u-1", got)
	}

	// Nicknames are unique.
	if _, err := us.Create("u-2", "Other", "mina", "hashed", model.RoleButtoner); err == nil {
		t.Error("expected unique constraint error for duplicate nickname")
	}
}

func TestUserGetMissing(t *testing.T) {
	us, _ := setupUserTestDB(t)

	got, err := us.GetByUID("ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing user")
	}

	hash, err := us.GetPasswordHash("ghost")
	if err != nil {
		t.Fatalf("get hash: %v", err)
	}
	if hash != "" {
		t.Errorf("hash = %q, want empty for missing user", hash)
	}
}

func TestUserListByRole(t *testing.T) {
	us, _ := setupUserTestDB(t)

	us.Create("u-1", "Admin", "boss", "h", model.RoleAdmin)
	us.Create("u-2", "Staff A", "a", "h", model.RoleButtoner)
	us.Create("u-3", "Staff B", "b", "h", model.RoleButtoner)

	staff, err := us.ListByRole(model.RoleButtoner)
	if err != nil {
		t.Fatalf("list by role: %v", err)
	}
	if len(staff) != 2 {
		t.Errorf("staff = %d, want 2", len(staff))
	}

	all, err := us.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
}

func TestFavorites(t *testing.T) {
	us, ps := setupUserTestDB(t)

	us.Create("u-1", "Mina", "mina", "h", model.RoleButtoner)
	ps.Create("latte", "Latte", "drink", 1500)
	ps.Create("cocoa", "Cocoa", "drink", 900)

	if err := us.AddFavorite("u-1", "latte"); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	// Adding twice is a no-op, not an error.
	if err := us.AddFavorite("u-1", "latte"); err != nil {
		t.Fatalf("re-add favorite: %v", err)
	}
	us.AddFavorite("u-1", "cocoa")

	favs, err := us.ListFavorites("u-1")
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(favs) != 2 {
		t.Errorf("favorites = %v, want 2 entries", favs)
	}

	if err := us.RemoveFavorite("u-1", "latte"); err != nil {
		t.Fatalf("remove favorite: %v", err)
	}
	favs, _ = us.ListFavorites("u-1")
	if len(favs) != 1 || favs[0] != "cocoa" {
		t.Errorf("favorites = %v, want [cocoa]", favs)
	}
}
