package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/buttoners/staffroom/internal/database"
	"github.com/buttoners/staffroom/internal/store"
)

func TestResolveProduct(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ps := store.NewProductStore(db)
	if _, err := ps.Create("latte", "Latte", "drink", 1500); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := ps.CreateOption("latte-l", "latte", "Large", 1800); err != nil {
		t.Fatalf("create option: %v", err)
	}

	entry, err := Resolve(context.Background(), db, "latte")
	if err != nil {
		t.Fatalf("resolve product: %v", err)
	}
	if entry.Name != "Latte" || entry.UnitPrice != 1500 {
		t.Errorf("entry = %+v", entry)
	}

	// An option resolves with the parent name prefixed and its own price.
	entry, err = Resolve(context.Background(), db, "latte-l")
	if err != nil {
		t.Fatalf("resolve option: %v", err)
	}
	if entry.Name != "Latte Large" {
		t.Errorf("name = %q, want %q", entry.Name, "Latte Large")
	}
	if entry.UnitPrice != 1800 {
		t.Errorf("price = %d, want 1800", entry.UnitPrice)
	}

	if _, err := Resolve(context.Background(), db, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveInsideTransaction(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := store.NewProductStore(db).Create("cocoa", "Cocoa", "drink", 900); err != nil {
		t.Fatalf("create product: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	entry, err := Resolve(context.Background(), tx, "cocoa")
	if err != nil {
		t.Fatalf("resolve in tx: %v", err)
	}
	if entry.UnitPrice != 900 {
		t.Errorf("price = %d, want 900", entry.UnitPrice)
	}
}
