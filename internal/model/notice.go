package model

import "time"

type Notice struct {
	ID         int64     `json:"id"`
	No         int       `json:"no"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	AuthorUID  string    `json:"author_uid"`
	AuthorName string    `json:"author_name"`
	ViewCount  int       `json:"view_count"`
	Pinned     bool      `json:"pinned"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
