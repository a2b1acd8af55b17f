package database

import (
	"testing"
	"time"

	"github.com/go-while/go-pugblog/internal/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	dbConfig := DefaultDBConfig()
	dbConfig.DataDir = t.TempDir()
	db, err := OpenDatabase(dbConfig)
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { db.Shutdown() })
	return db
}

func insertTestUser(t *testing.T, db *Database, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		DisplayName:  username,
	}
	if _, err := db.InsertUser(user); err != nil {
		t.Fatalf("insert user %s: %v", username, err)
	}
	return user
}

func TestDeletePostCascadesToComments(t *testing.T) {
	db := newTestDB(t)
	author := insertTestUser(t, db, "alice")

	post := &models.Post{Text: "doomed post", AuthorID: author.ID}
	postID, err := db.InsertPost(post)
	if err != nil {
		t.Fatal(err)
	}

	comment := &models.Comment{PostID: postID, AuthorID: author.ID, Text: "doomed comment"}
	commentID, err := db.InsertComment(comment)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetCommentByID(commentID); err != nil {
		t.Fatalf("comment should exist before delete: %v", err)
	}

	if err := db.DeletePost(postID); err != nil {
		t.Fatalf("delete post: %v", err)
	}

	if _, err := db.GetPostByID(postID); err == nil {
		t.Error("post should be gone")
	}
	if _, err := db.GetCommentByID(commentID); err == nil {
		t.Error("comment should be gone via cascade")
	}

	// The comment row itself must be gone, not just unjoinable
	rows, err := RetryableQuery(db.GetMainDB(), `SELECT id FROM comments WHERE post_id = ?`, postID)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	if rows.Next() {
		t.Error("orphaned comment row left behind")
	}
}

func TestDeleteComment(t *testing.T) {
	db := newTestDB(t)
	author := insertTestUser(t, db, "alice")

	post := &models.Post{Text: "a post", AuthorID: author.ID}
	postID, err := db.InsertPost(post)
	if err != nil {
		t.Fatal(err)
	}

	comment := &models.Comment{PostID: postID, AuthorID: author.ID, Text: "bye"}
	commentID, err := db.InsertComment(comment)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteComment(commentID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if _, err := db.GetCommentByID(commentID); err == nil {
		t.Error("comment should be gone")
	}
	if _, err := db.GetPostByID(postID); err != nil {
		t.Errorf("post should survive comment deletion: %v", err)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	db := newTestDB(t)
	user := insertTestUser(t, db, "alice")

	sessionID, err := db.CreateUserSession(user.ID, "127.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ValidateUserSession(sessionID); err != nil {
		t.Fatalf("fresh session should validate: %v", err)
	}

	// Age the session past its expiry
	expired := time.Now().Add(-time.Hour)
	if _, err := RetryableExec(db.GetMainDB(),
		`UPDATE users SET session_expires_at = ? WHERE id = ?`, expired, user.ID); err != nil {
		t.Fatal(err)
	}

	if err := db.CleanupExpiredSessions(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if _, err := db.ValidateUserSession(sessionID); err == nil {
		t.Error("expired session should no longer validate")
	}

	var storedSession string
	err = RetryableQueryRowScan(db.GetMainDB(),
		`SELECT session_id FROM users WHERE id = ?`, []interface{}{user.ID}, &storedSession)
	if err != nil {
		t.Fatal(err)
	}
	if storedSession != "" {
		t.Errorf("session_id = %q, want cleared", storedSession)
	}
}
