package store

import (
	"database/sql"
	"fmt"

	"github.com/buttoners/staffroom/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.UID, &u.Name, &u.Nickname, &u.Role, &u.Points, &u.Exp, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `uid, name, nickname, role, points, exp, created_at`

func (s *UserStore) Create(uid, name, nickname, passwordHash, role string) (*model.User, error) {
	_, err := s.db.Exec(
		`INSERT INTO users (uid, name, nickname, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		uid, name, nickname, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByUID(uid)
}

func (s *UserStore) GetByUID(uid string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE uid = ?`, uid)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByNickname(nickname string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE nickname = ?`, nickname)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by nickname: %w", err)
	}
	return u, nil
}

// GetPasswordHash returns the stored hash for a nickname, or "" if the
// user does not exist.
func (s *UserStore) GetPasswordHash(nickname string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM users WHERE nickname = ?`, nickname).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash, nil
}

// List returns all users ordered by name.
func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListByRole returns users with the given role, ordered by name.
func (s *UserStore) ListByRole(role string) ([]model.User, error) {
	rows, err := s.db.Query(`SELECT `+userCols+` FROM users WHERE role = ? ORDER BY name ASC`, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// --- Favorites ---

func (s *UserStore) ListFavorites(uid string) ([]string, error) {
	rows, err := s.db.Query(`SELECT product_id FROM favorites WHERE uid = ? ORDER BY created_at ASC`, uid)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *UserStore) AddFavorite(uid, productID string) error {
	_, err := s.db.Exec(
		`INSERT INTO favorites (uid, product_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		uid, productID,
	)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (s *UserStore) RemoveFavorite(uid, productID string) error {
	_, err := s.db.Exec(`DELETE FROM favorites WHERE uid = ? AND product_id = ?`, uid, productID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// --- Login logs ---

func (s *UserStore) RecordLogin(uid, nickname, ipAddress string) error {
	_, err := s.db.Exec(
		`INSERT INTO login_logs (uid, nickname, ip_address) VALUES (?, ?, ?)`,
		uid, nickname, ipAddress,
	)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}
