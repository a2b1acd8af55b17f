package database

import (
	"database/sql"
	"fmt"

	"github.com/go-while/go-pugblog/internal/models"
)

// InsertComment attaches a new comment to a post and returns its ID
func (db *Database) InsertComment(comment *models.Comment) (int64, error) {
	query := `INSERT INTO comments (post_id, author_id, text) VALUES (?, ?, ?)`

	result, err := retryableExec(db.mainDB, query,
		comment.PostID, comment.AuthorID, comment.Text)
	if err != nil {
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get comment ID: %w", err)
	}
	comment.ID = id
	return id, nil
}

// GetCommentByID retrieves a single comment
func (db *Database) GetCommentByID(commentID int64) (*models.Comment, error) {
	query := `SELECT c.id, c.post_id, c.author_id, c.text, c.created_at, c.edited_at,
		u.username as author_name
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.id = ?`

	var comment models.Comment
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{commentID},
		&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Text,
		&comment.CreatedAt, &comment.EditedAt, &comment.AuthorName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("comment not found")
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// GetCommentsByPost retrieves all comments on a post, oldest first
func (db *Database) GetCommentsByPost(postID int64) ([]*models.Comment, error) {
	query := `SELECT c.id, c.post_id, c.author_id, c.text, c.created_at, c.edited_at,
		u.username as author_name
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.post_id = ?
		ORDER BY c.id ASC`

	rows, err := retryableQuery(db.mainDB, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		comment := &models.Comment{}
		err := rows.Scan(
			&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Text,
			&comment.CreatedAt, &comment.EditedAt, &comment.AuthorName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

// CountCommentsByPost returns the number of comments on a post
func (db *Database) CountCommentsByPost(postID int64) (int, error) {
	var count int
	err := retryableQueryRowScan(db.mainDB,
		`SELECT COUNT(*) FROM comments WHERE post_id = ?`, []interface{}{postID}, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// DeleteComment removes a comment
func (db *Database) DeleteComment(commentID int64) error {
	result, err := retryableExec(db.mainDB, `DELETE FROM comments WHERE id = ?`, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("comment not found")
	}
	return nil
}
