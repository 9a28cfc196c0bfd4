package store

import (
	"testing"
	"time"

	"github.com/buttoners/staffroom/internal/database"
	"github.com/buttoners/staffroom/internal/model"
)

func setupCleaningTestDB(t *testing.T) (*CleaningStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCleaningStore(db), NewUserStore(db)
}

func TestCleaningTaskCRUD(t *testing.T) {
	cs, _ := setupCleaningTestDB(t)

	task, err := cs.CreateTask("Mop floor", "floor", model.IntervalWeekly, 1, 0, []string{"move chairs", "mop", "dry"}, true)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if len(task.Checklist) != 3 {
		t.Errorf("checklist = %v, want 3 items", task.Checklist)
	}
	if task.LastDoneAt != nil {
		t.Error("new task should have no last_done_at")
	}

	updated, err := cs.UpdateTask(task.ID, "Mop floor", "floor", model.IntervalEveryN, 0, 3, []string{"mop"}, false)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.IntervalType != model.IntervalEveryN || updated.IntervalN != 3 {
		t.Errorf("interval = %+v", updated)
	}
	if updated.Active {
		t.Error("expected inactive")
	}

	if err := cs.DeleteTask(task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	got, _ := cs.GetTaskByID(task.ID)
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestCleaningComplete(t *testing.T) {
	cs, us := setupCleaningTestDB(t)
	us.Create("u-1", "Mina", "mina", "h", model.RoleButtoner)

	task, _ := cs.CreateTask("Trash", "waste", model.IntervalDaily, 0, 0, nil, true)

	logEntry, err := cs.Complete(task.ID, "u-1", "Mina")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if logEntry.TaskID != task.ID || logEntry.DoneBy != "u-1" {
		t.Errorf("log = %+v", logEntry)
	}

	got, _ := cs.GetTaskByID(task.ID)
	if got.LastDoneAt == nil {
		t.Fatal("last_done_at not stamped")
	}

	logs, err := cs.ListLogs(task.ID, 10)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("logs = %d, want 1", len(logs))
	}
}

func TestCleaningLeaderboard(t *testing.T) {
	cs, us := setupCleaningTestDB(t)
	us.Create("u-1", "Mina", "mina", "h", model.RoleButtoner)
	us.Create("u-2", "Dana", "dana", "h", model.RoleButtoner)

	task, _ := cs.CreateTask("Trash", "waste", model.IntervalDaily, 0, 0, nil, true)

	cs.Complete(task.ID, "u-1", "Mina")
	cs.Complete(task.ID, "u-1", "Mina")
	cs.Complete(task.ID, "u-2", "Dana")

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	entries, err := cs.Leaderboard(from, to)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].UID != "u-1" || entries[0].Count != 2 {
		t.Errorf("leader = %+v, want u-1 with 2", entries[0])
	}

	// Outside the window nothing counts.
	past, err := cs.Leaderboard(from.Add(-48*time.Hour), from.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("past leaderboard: %v", err)
	}
	if len(past) != 0 {
		t.Errorf("past entries = %d, want 0", len(past))
	}
}
