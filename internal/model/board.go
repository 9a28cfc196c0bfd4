package model

import "time"

type BoardPost struct {
	ID            int64     `json:"id"`
	No            int       `json:"no"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	AuthorUID     string    `json:"author_uid"`
	Author        string    `json:"author"`
	IsAnonymous   bool      `json:"is_anonymous"`
	CommentsCount int       `json:"comments_count"`
	Views         int       `json:"views"`
	Likes         int       `json:"likes"`
	Locked        bool      `json:"locked"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type BoardComment struct {
	ID          int64     `json:"id"`
	PostID      int64     `json:"post_id"`
	AuthorUID   string    `json:"author_uid"`
	Author      string    `json:"author"`
	IsAnonymous bool      `json:"is_anonymous"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
