package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/buttoners/staffroom/internal/model"
)

type GameStore struct {
	db *sql.DB
}

func NewGameStore(db *sql.DB) *GameStore {
	return &GameStore{db: db}
}

func scanGameItem(scanner interface{ Scan(...any) error }) (*model.GameItem, error) {
	var g model.GameItem
	var tags string

	err := scanner.Scan(&g.ID, &g.Name, &g.Status, &tags, &g.Notes, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &g.Tags); err != nil {
		g.Tags = nil
	}
	return &g, nil
}

const gameItemCols = `id, name, status, tags, notes, created_at, updated_at`

func (s *GameStore) Create(name, status string, tags []string, notes string) (*model.GameItem, error) {
	if tags == nil {
		tags = []string{}
	}
	tg, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO game_items (name, status, tags, notes) VALUES (?, ?, ?, ?)`,
		name, status, string(tg), notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert game item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GameStore) GetByID(id int64) (*model.GameItem, error) {
	row := s.db.QueryRow(`SELECT `+gameItemCols+` FROM game_items WHERE id = ?`, id)
	g, err := scanGameItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game item: %w", err)
	}
	return g, nil
}

// List returns all game items ordered by name.
func (s *GameStore) List() ([]model.GameItem, error) {
	rows, err := s.db.Query(`SELECT ` + gameItemCols + ` FROM game_items ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list game items: %w", err)
	}
	defer rows.Close()

	var items []model.GameItem
	for rows.Next() {
		g, err := scanGameItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game item: %w", err)
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}

func (s *GameStore) Update(id int64, name, status string, tags []string, notes string) (*model.GameItem, error) {
	if tags == nil {
		tags = []string{}
	}
	tg, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE game_items SET name = ?, status = ?, tags = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, status, string(tg), notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update game item: %w", err)
	}
	return s.GetByID(id)
}

func (s *GameStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM game_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game item: %w", err)
	}
	return nil
}
