package store

import (
	"database/sql"
	"fmt"

	"github.com/buttoners/staffroom/internal/model"
)

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func scanProduct(scanner interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	err := scanner.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const productCols = `id, name, category, price, created_at, updated_at`

func (s *ProductStore) Create(id, name, category string, price int) (*model.Product, error) {
	_, err := s.db.Exec(
		`INSERT INTO products (id, name, category, price) VALUES (?, ?, ?, ?)`,
		id, name, category, price,
	)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProductStore) GetByID(id string) (*model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productCols+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns all products with their options, ordered by category then name.
func (s *ProductStore) List() ([]model.Product, error) {
	rows, err := s.db.Query(`SELECT ` + productCols + ` FROM products ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range products {
		opts, err := s.ListOptions(products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].Options = opts
	}
	return products, nil
}

func (s *ProductStore) Update(id, name, category string, price int) (*model.Product, error) {
	_, err := s.db.Exec(
		`UPDATE products SET name = ?, category = ?, price = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, category, price, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProductStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// --- Option methods ---

func scanOption(scanner interface{ Scan(...any) error }) (*model.ProductOption, error) {
	var o model.ProductOption
	err := scanner.Scan(&o.ID, &o.ProductID, &o.Name, &o.Price, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const optionCols = `id, product_id, name, price, created_at`

func (s *ProductStore) CreateOption(id, productID, name string, price int) (*model.ProductOption, error) {
	_, err := s.db.Exec(
		`INSERT INTO product_options (id, product_id, name, price) VALUES (?, ?, ?, ?)`,
		id, productID, name, price,
	)
	if err != nil {
		return nil, fmt.Errorf("insert option: %w", err)
	}
	return s.GetOptionByID(id)
}

func (s *ProductStore) GetOptionByID(id string) (*model.ProductOption, error) {
	row := s.db.QueryRow(`SELECT `+optionCols+` FROM product_options WHERE id = ?`, id)
	o, err := scanOption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get option: %w", err)
	}
	return o, nil
}

func (s *ProductStore) ListOptions(productID string) ([]model.ProductOption, error) {
	rows, err := s.db.Query(`SELECT `+optionCols+` FROM product_options WHERE product_id = ? ORDER BY name ASC`, productID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()

	var opts []model.ProductOption
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		opts = append(opts, *o)
	}
	return opts, rows.Err()
}

func (s *ProductStore) DeleteOption(id string) error {
	_, err := s.db.Exec(`DELETE FROM product_options WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete option: %w", err)
	}
	return nil
}
