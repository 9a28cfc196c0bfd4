package store

import (
	"testing"

	"github.com/buttoners/staffroom/internal/database"
)

func setupBoardTestDB(t *testing.T) *BoardStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBoardStore(db)
}

func TestBoardPostCRUD(t *testing.T) {
	bs := setupBoardTestDB(t)

	post, err := bs.CreatePost("Lost umbrella", "Black, left by the door", "u-1", "mina", false)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.No != 1 {
		t.Errorf("no = %d, want 1", post.No)
	}
	if post.CommentsCount != 0 {
		t.Errorf("comments = %d, want 0", post.CommentsCount)
	}

	updated, err := bs.UpdatePost(post.ID, "Found umbrella", "Nevermind")
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.Title != "Found umbrella" {
		t.Errorf("title = %q", updated.Title)
	}

	if err := bs.DeletePost(post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	got, _ := bs.GetPostByID(post.ID)
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestBoardAnonymousPost(t *testing.T) {
	bs := setupBoardTestDB(t)

	post, err := bs.CreatePost("Honest feedback", "The schedule is chaos", "u-1", "anonymous", true)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if !post.IsAnonymous {
		t.Error("expected anonymous flag")
	}
	// The author uid is stored for moderation even when anonymous.
	if post.AuthorUID != "u-1" {
		t.Errorf("author_uid = %q, want u-1", post.AuthorUID)
	}
}

func TestBoardLikes(t *testing.T) {
	bs := setupBoardTestDB(t)
	post, _ := bs.CreatePost("Like me", "", "u-1", "mina", false)

	for want := 1; want <= 3; want++ {
		likes, err := bs.IncrementLikes(post.ID)
		if err != nil {
			t.Fatalf("like: %v", err)
		}
		if likes != want {
			t.Errorf("likes = %d, want %d", likes, want)
		}
	}
}

func TestBoardComments(t *testing.T) {
	bs := setupBoardTestDB(t)
	post, _ := bs.CreatePost("Question", "Where are the spare keys?", "u-1", "mina", false)

	c1, err := bs.CreateComment(post.ID, "u-2", "dana", "Top drawer", false)
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	bs.CreateComment(post.ID, "u-3", "anonymous", "No idea", true)

	got, _ := bs.GetPostByID(post.ID)
	if got.CommentsCount != 2 {
		t.Errorf("comments_count = %d, want 2", got.CommentsCount)
	}

	comments, err := bs.ListComments(post.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(comments))
	}
	if comments[0].Content != "Top drawer" {
		t.Errorf("first comment = %q, want oldest first", comments[0].Content)
	}

	if err := bs.DeleteComment(c1.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	got, _ = bs.GetPostByID(post.ID)
	if got.CommentsCount != 1 {
		t.Errorf("comments_count = %d, want 1 after delete", got.CommentsCount)
	}
}

func TestBoardCascadeDeleteComments(t *testing.T) {
	bs := setupBoardTestDB(t)
	post, _ := bs.CreatePost("Doomed", "", "u-1", "mina", false)
	bs.CreateComment(post.ID, "u-2", "dana", "bye", false)

	if err := bs.DeletePost(post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	comments, err := bs.ListComments(post.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("comments = %d, want 0 after post delete", len(comments))
	}
}

func TestBoardLock(t *testing.T) {
	bs := setupBoardTestDB(t)
	post, _ := bs.CreatePost("Heated", "", "u-1", "mina", false)

	if err := bs.SetLocked(post.ID, true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	got, _ := bs.GetPostByID(post.ID)
	if !got.Locked {
		t.Error("expected locked")
	}
}
