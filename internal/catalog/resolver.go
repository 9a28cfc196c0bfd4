// Package catalog resolves cart line ids to purchasable entries.
//
// A cart line may reference either a base product or one of its priced
// options. Options are priced independently of their parent, so the
// lookup goes product-first, then falls back to the flattened option
// index.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id matches neither a product nor an option.
var ErrNotFound = errors.New("catalog entry not found")

// Querier is satisfied by both *sql.DB and *sql.Tx, so resolution can
// run inside the purchase transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Entry is a resolved purchasable unit.
type Entry struct {
	Name      string `json:"name"`
	UnitPrice int    `json:"unit_price"`
}

// Resolve looks up a cart line id. Products win over options; an
// option's display name is composed as "{parent} {option}" and its
// price is the option's own, which may differ from the parent's.
func Resolve(ctx context.Context, q Querier, id string) (Entry, error) {
	var e Entry
	err := q.QueryRowContext(ctx, `SELECT name, price FROM products WHERE id = ?`, id).
		Scan(&e.Name, &e.UnitPrice)
	if err == nil {
		return e, nil
	}
	if err != sql.ErrNoRows {
		return Entry{}, fmt.Errorf("resolve product %q: %w", id, err)
	}

	var parentName, optionName string
	var price int
	err = q.QueryRowContext(ctx,
		`SELECT p.name, o.name, o.price
		 FROM product_options o
		 JOIN products p ON p.id = o.product_id
		 WHERE o.id = ?`, id).
		Scan(&parentName, &optionName, &price)
	if err == sql.ErrNoRows {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("resolve option %q: %w", id, err)
	}

	return Entry{
		Name:      parentName + " " + optionName,
		UnitPrice: price,
	}, nil
}
