package model

import "time"

// Cleaning interval types.
const (
	IntervalDaily  = "daily"
	IntervalWeekly = "weekly"
	IntervalEveryN = "everyN"
)

type CleaningTask struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Category        string     `json:"category"`
	IntervalType    string     `json:"interval_type"`
	IntervalWeekday int        `json:"interval_weekday"` // 0=Sunday, used for weekly
	IntervalN       int        `json:"interval_n"`       // used for everyN
	Checklist       []string   `json:"checklist"`
	Active          bool       `json:"active"`
	LastDoneAt      *time.Time `json:"last_done_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type CleaningLog struct {
	ID         int64     `json:"id"`
	TaskID     int64     `json:"task_id"`
	TaskTitle  string    `json:"task_title"`
	DoneBy     string    `json:"done_by"`
	DoneByName string    `json:"done_by_name"`
	At         time.Time `json:"at"`
}

// LeaderboardEntry is one row of the monthly cleaning leaderboard.
type LeaderboardEntry struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}
