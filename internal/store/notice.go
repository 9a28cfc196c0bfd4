package store

import (
	"database/sql"
	"fmt"

	"github.com/buttoners/staffroom/internal/model"
)

type NoticeStore struct {
	db *sql.DB
}

func NewNoticeStore(db *sql.DB) *NoticeStore {
	return &NoticeStore{db: db}
}

func scanNotice(scanner interface{ Scan(...any) error }) (*model.Notice, error) {
	var n model.Notice
	var pinned int

	err := scanner.Scan(&n.ID, &n.No, &n.Title, &n.Body, &n.AuthorUID, &n.AuthorName,
		&n.ViewCount, &pinned, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}

	n.Pinned = pinned != 0
	return &n, nil
}

const noticeCols = `id, no, title, body, author_uid, author_name, view_count, pinned, created_at, updated_at`

func (s *NoticeStore) Create(title, body, authorUID, authorName string, pinned bool) (*model.Notice, error) {
	var p int
	if pinned {
		p = 1
	}

	var no int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(no), 0) + 1 FROM notices`).Scan(&no); err != nil {
		return nil, fmt.Errorf("next notice no: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO notices (no, title, body, author_uid, author_name, pinned) VALUES (?, ?, ?, ?, ?, ?)`,
		no, title, body, authorUID, authorName, p,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notice: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *NoticeStore) GetByID(id int64) (*model.Notice, error) {
	row := s.db.QueryRow(`SELECT `+noticeCols+` FROM notices WHERE id = ?`, id)
	n, err := scanNotice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notice: %w", err)
	}
	return n, nil
}

// List returns all notices, pinned first, then newest first.
func (s *NoticeStore) List() ([]model.Notice, error) {
	rows, err := s.db.Query(`SELECT ` + noticeCols + ` FROM notices ORDER BY pinned DESC, no DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var notices []model.Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, *n)
	}
	return notices, rows.Err()
}

func (s *NoticeStore) Update(id int64, title, body string, pinned bool) (*model.Notice, error) {
	var p int
	if pinned {
		p = 1
	}

	_, err := s.db.Exec(
		`UPDATE notices SET title = ?, body = ?, pinned = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, body, p, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update notice: %w", err)
	}
	return s.GetByID(id)
}

func (s *NoticeStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM notices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	return nil
}

// IncrementViewCount bumps the view counter and returns the new value.
func (s *NoticeStore) IncrementViewCount(id int64) (int, error) {
	_, err := s.db.Exec(`UPDATE notices SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("increment view count: %w", err)
	}
	var count int
	if err := s.db.QueryRow(`SELECT view_count FROM notices WHERE id = ?`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("get view count: %w", err)
	}
	return count, nil
}
