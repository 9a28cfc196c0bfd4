package store

import (
	"database/sql"
	"fmt"

	"github.com/buttoners/staffroom/internal/model"
)

type BoardStore struct {
	db *sql.DB
}

func NewBoardStore(db *sql.DB) *BoardStore {
	return &BoardStore{db: db}
}

func scanBoardPost(scanner interface{ Scan(...any) error }) (*model.BoardPost, error) {
	var p model.BoardPost
	var anonymous, locked int

	err := scanner.Scan(&p.ID, &p.No, &p.Title, &p.Content, &p.AuthorUID, &p.Author,
		&anonymous, &p.CommentsCount, &p.Views, &p.Likes, &locked, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.IsAnonymous = anonymous != 0
	p.Locked = locked != 0
	return &p, nil
}

const boardPostCols = `id, no, title, content, author_uid, author, is_anonymous, comments_count, views, likes, locked, created_at, updated_at`

func (s *BoardStore) CreatePost(title, content, authorUID, author string, anonymous bool) (*model.BoardPost, error) {
	var a int
	if anonymous {
		a = 1
	}

	var no int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(no), 0) + 1 FROM board_posts`).Scan(&no); err != nil {
		return nil, fmt.Errorf("next post no: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO board_posts (no, title, content, author_uid, author, is_anonymous) VALUES (?, ?, ?, ?, ?, ?)`,
		no, title, content, authorUID, author, a,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetPostByID(id)
}

func (s *BoardStore) GetPostByID(id int64) (*model.BoardPost, error) {
	row := s.db.QueryRow(`SELECT `+boardPostCols+` FROM board_posts WHERE id = ?`, id)
	p, err := scanBoardPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// ListPosts returns posts newest first.
func (s *BoardStore) ListPosts() ([]model.BoardPost, error) {
	rows, err := s.db.Query(`SELECT ` + boardPostCols + ` FROM board_posts ORDER BY no DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.BoardPost
	for rows.Next() {
		p, err := scanBoardPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *BoardStore) UpdatePost(id int64, title, content string) (*model.BoardPost, error) {
	_, err := s.db.Exec(
		`UPDATE board_posts SET title = ?, content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, content, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.GetPostByID(id)
}

func (s *BoardStore) DeletePost(id int64) error {
	_, err := s.db.Exec(`DELETE FROM board_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (s *BoardStore) IncrementViews(id int64) error {
	_, err := s.db.Exec(`UPDATE board_posts SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

func (s *BoardStore) IncrementLikes(id int64) (int, error) {
	_, err := s.db.Exec(`UPDATE board_posts SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("increment likes: %w", err)
	}
	var likes int
	if err := s.db.QueryRow(`SELECT likes FROM board_posts WHERE id = ?`, id).Scan(&likes); err != nil {
		return 0, fmt.Errorf("get likes: %w", err)
	}
	return likes, nil
}

func (s *BoardStore) SetLocked(id int64, locked bool) error {
	var l int
	if locked {
		l = 1
	}
	_, err := s.db.Exec(`UPDATE board_posts SET locked = ? WHERE id = ?`, l, id)
	if err != nil {
		return fmt.Errorf("set locked: %w", err)
	}
	return nil
}

// --- Comment methods ---

func scanBoardComment(scanner interface{ Scan(...any) error }) (*model.BoardComment, error) {
	var c model.BoardComment
	var anonymous int

	err := scanner.Scan(&c.ID, &c.PostID, &c.AuthorUID, &c.Author, &anonymous, &c.Content, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.IsAnonymous = anonymous != 0
	return &c, nil
}

const boardCommentCols = `id, post_id, author_uid, author, is_anonymous, content, created_at`

// CreateComment inserts a comment and bumps the post's comment counter.
func (s *BoardStore) CreateComment(postID int64, authorUID, author, content string, anonymous bool) (*model.BoardComment, error) {
	var a int
	if anonymous {
		a = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO board_comments (post_id, author_uid, author, is_anonymous, content) VALUES (?, ?, ?, ?, ?)`,
		postID, authorUID, author, a, content,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := s.db.Exec(`UPDATE board_posts SET comments_count = comments_count + 1 WHERE id = ?`, postID); err != nil {
		return nil, fmt.Errorf("bump comments count: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+boardCommentCols+` FROM board_comments WHERE id = ?`, id)
	return scanBoardComment(row)
}

func (s *BoardStore) GetCommentByID(id int64) (*model.BoardComment, error) {
	row := s.db.QueryRow(`SELECT `+boardCommentCols+` FROM board_comments WHERE id = ?`, id)
	c, err := scanBoardComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (s *BoardStore) ListComments(postID int64) ([]model.BoardComment, error) {
	rows, err := s.db.Query(`SELECT `+boardCommentCols+` FROM board_comments WHERE post_id = ? ORDER BY created_at ASC, id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.BoardComment
	for rows.Next() {
		c, err := scanBoardComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// DeleteComment removes a comment and decrements the post's counter.
func (s *BoardStore) DeleteComment(id int64) error {
	c, err := s.GetCommentByID(id)
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}

	if _, err := s.db.Exec(`DELETE FROM board_comments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if _, err := s.db.Exec(`UPDATE board_posts SET comments_count = comments_count - 1 WHERE id = ? AND comments_count > 0`, c.PostID); err != nil {
		return fmt.Errorf("drop comments count: %w", err)
	}
	return nil
}
