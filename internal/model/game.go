package model

import "time"

// Game item statuses.
const (
	GameStatusOK      = "ok"
	GameStatusRepair  = "repair"
	GameStatusMissing = "missing"
)

type GameItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
