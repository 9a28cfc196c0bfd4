package store

import (
	"testing"

	"github.com/buttoners/staffroom/internal/database"
)

func setupProductTestDB(t *testing.T) *ProductStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewProductStore(db)
}

func TestProductCRUD(t *testing.T) {
	ps := setupProductTestDB(t)

	product, err := ps.Create("latte", "Latte", "drink", 1500)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.Price != 1500 {
		t.Errorf("price = %d, want 1500", product.Price)
	}

	updated, err := ps.Update("latte", "Cafe Latte", "drink", 1600)
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.Name != "Cafe Latte" || updated.Price != 1600 {
		t.Errorf("updated = %+v", updated)
	}

	if err := ps.Delete("latte"); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	got, _ := ps.GetByID("latte")
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestProductOptions(t *testing.T) {
	ps := setupProductTestDB(t)

	ps.Create("latte", "Latte", "drink", 1500)
	if _, err := ps.CreateOption("latte-l", "latte", "Large", 1800); err != nil {
		t.Fatalf("create option: %v", err)
	}
	ps.CreateOption("latte-ice", "latte", "Iced", 1700)

	products, err := ps.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("products = %d, want 1", len(products))
	}
	if len(products[0].Options) != 2 {
		t.Errorf("options = %d, want 2", len(products[0].Options))
	}

	// Options ride along on delete of the parent.
	if err := ps.Delete("latte"); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	opt, err := ps.GetOptionByID("latte-l")
	if err != nil {
		t.Fatalf("get option: %v", err)
	}
	if opt != nil {
		t.Error("option survived parent delete")
	}
}
