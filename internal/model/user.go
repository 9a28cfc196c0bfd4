package model

import "time"

const (
	RoleAdmin    = "admin"
	RoleButtoner = "buttoner"
)

type User struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Nickname  string    `json:"nickname"`
	Role      string    `json:"role"`
	Points    int       `json:"points"`
	Exp       int       `json:"exp"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginLog struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Nickname  string    `json:"nickname"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}
