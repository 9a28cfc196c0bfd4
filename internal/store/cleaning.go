package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/buttoners/staffroom/internal/model"
)

type CleaningStore struct {
	db *sql.DB
}

func NewCleaningStore(db *sql.DB) *CleaningStore {
	return &CleaningStore{db: db}
}

func scanCleaningTask(scanner interface{ Scan(...any) error }) (*model.CleaningTask, error) {
	var t model.CleaningTask
	var checklist string
	var active int
	var lastDone sql.NullTime

	err := scanner.Scan(&t.ID, &t.Title, &t.Category, &t.IntervalType, &t.IntervalWeekday,
		&t.IntervalN, &checklist, &active, &lastDone, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(checklist), &t.Checklist); err != nil {
		t.Checklist = nil
	}
	t.Active = active != 0
	if lastDone.Valid {
		t.LastDoneAt = &lastDone.Time
	}
	return &t, nil
}

const cleaningTaskCols = `id, title, category, interval_type, interval_weekday, interval_n, checklist, active, last_done_at, created_at, updated_at`

func (s *CleaningStore) CreateTask(title, category, intervalType string, weekday, n int, checklist []string, active bool) (*model.CleaningTask, error) {
	var a int
	if active {
		a = 1
	}
	if checklist == nil {
		checklist = []string{}
	}
	cl, err := json.Marshal(checklist)
	if err != nil {
		return nil, fmt.Errorf("marshal checklist: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO cleaning_tasks (title, category, interval_type, interval_weekday, interval_n, checklist, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, category, intervalType, weekday, n, string(cl), a,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cleaning task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTaskByID(id)
}

func (s *CleaningStore) GetTaskByID(id int64) (*model.CleaningTask, error) {
	row := s.db.QueryRow(`SELECT `+cleaningTaskCols+` FROM cleaning_tasks WHERE id = ?`, id)
	t, err := scanCleaningTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cleaning task: %w", err)
	}
	return t, nil
}

// ListTasks returns all tasks, active first, grouped by category.
func (s *CleaningStore) ListTasks() ([]model.CleaningTask, error) {
	rows, err := s.db.Query(`SELECT ` + cleaningTaskCols + ` FROM cleaning_tasks ORDER BY active DESC, category ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cleaning tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.CleaningTask
	for rows.Next() {
		t, err := scanCleaningTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cleaning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *CleaningStore) UpdateTask(id int64, title, category, intervalType string, weekday, n int, checklist []string, active bool) (*model.CleaningTask, error) {
	var a int
	if active {
		a = 1
	}
	if checklist == nil {
		checklist = []string{}
	}
	cl, err := json.Marshal(checklist)
	if err != nil {
		return nil, fmt.Errorf("marshal checklist: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE cleaning_tasks SET title = ?, category = ?, interval_type = ?, interval_weekday = ?,
		 interval_n = ?, checklist = ?, active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, category, intervalType, weekday, n, string(cl), a, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update cleaning task: %w", err)
	}
	return s.GetTaskByID(id)
}

func (s *CleaningStore) DeleteTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM cleaning_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cleaning task: %w", err)
	}
	return nil
}

// --- Log methods ---

const cleaningLogCols = `id, task_id, task_title, done_by, done_by_name, at`

func scanCleaningLog(scanner interface{ Scan(...any) error }) (*model.CleaningLog, error) {
	var l model.CleaningLog
	err := scanner.Scan(&l.ID, &l.TaskID, &l.TaskTitle, &l.DoneBy, &l.DoneByName, &l.At)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Complete records a completion log and stamps the task's last_done_at.
func (s *CleaningStore) Complete(taskID int64, doneBy, doneByName string) (*model.CleaningLog, error) {
	task, err := s.GetTaskByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("cleaning task %d not found", taskID)
	}

	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO cleaning_logs (task_id, task_title, done_by, done_by_name, at) VALUES (?, ?, ?, ?, ?)`,
		taskID, task.Title, doneBy, doneByName, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cleaning log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := s.db.Exec(`UPDATE cleaning_tasks SET last_done_at = ? WHERE id = ?`, now, taskID); err != nil {
		return nil, fmt.Errorf("stamp last done: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+cleaningLogCols+` FROM cleaning_logs WHERE id = ?`, id)
	return scanCleaningLog(row)
}

// ListLogs returns completion logs for a task, newest first.
func (s *CleaningStore) ListLogs(taskID int64, limit int) ([]model.CleaningLog, error) {
	rows, err := s.db.Query(
		`SELECT `+cleaningLogCols+` FROM cleaning_logs WHERE task_id = ? ORDER BY at DESC, id DESC LIMIT ?`,
		taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list cleaning logs: %w", err)
	}
	defer rows.Close()

	var logs []model.CleaningLog
	for rows.Next() {
		l, err := scanCleaningLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cleaning log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// Leaderboard counts completions per user in [from, to), most first.
func (s *CleaningStore) Leaderboard(from, to time.Time) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT l.done_by, COALESCE(u.name, l.done_by_name), COUNT(*)
		 FROM cleaning_logs l
		 LEFT JOIN users u ON u.uid = l.done_by
		 WHERE l.at >= ? AND l.at < ?
		 GROUP BY l.done_by
		 ORDER BY COUNT(*) DESC, l.done_by ASC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("cleaning leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UID, &e.Name, &e.Count); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
