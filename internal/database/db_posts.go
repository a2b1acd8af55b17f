package database

import (
	"database/sql"
	"fmt"

	"github.com/go-while/go-pugblog/internal/models"
)

// Base SELECT for posts with author and group display fields joined in
const query_selectPosts = `
	SELECT
		p.id, p.text, p.author_id, p.group_id, p.image_path, p.created_at, p.edited_at,
		u.username as author_name,
		COALESCE(g.title, '') as group_title,
		COALESCE(g.slug, '') as group_slug
	FROM posts p
	JOIN users u ON p.author_id = u.id
	LEFT JOIN groups g ON p.group_id = g.id`

// Newest first, ID breaks ties for posts created in the same second
const query_orderPosts = ` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`

func scanPostRows(rows *sql.Rows) ([]*models.Post, error) {
	var posts []*models.Post
	for rows.Next() {
		post := &models.Post{}
		err := rows.Scan(
			&post.ID, &post.Text, &post.AuthorID, &post.GroupID,
			&post.ImagePath, &post.CreatedAt, &post.EditedAt,
			&post.AuthorName, &post.GroupTitle, &post.GroupSlug)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// InsertPost creates a new post and returns its ID
func (db *Database) InsertPost(post *models.Post) (int64, error) {
	query := `INSERT INTO posts (text, author_id, group_id, image_path) VALUES (?, ?, ?, ?)`

	result, err := retryableExec(db.mainDB, query,
		post.Text, post.AuthorID, post.GroupID, post.ImagePath)
	if err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get post ID: %w", err)
	}
	post.ID = id
	return id, nil
}

// GetPostByID retrieves a single post with author and group info
func (db *Database) GetPostByID(postID int64) (*models.Post, error) {
	query := query_selectPosts + ` WHERE p.id = ?`

	var post models.Post
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{postID},
		&post.ID, &post.Text, &post.AuthorID, &post.GroupID,
		&post.ImagePath, &post.CreatedAt, &post.EditedAt,
		&post.AuthorName, &post.GroupTitle, &post.GroupSlug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("post not found")
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// UpdatePost updates a post's text, group and image, stamping edited_at.
// CreatedAt and AuthorID are never touched.
func (db *Database) UpdatePost(postID int64, text string, groupID *int64, imagePath string) error {
	query := `UPDATE posts SET
		text = ?,
		group_id = ?,
		image_path = ?,
		edited_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	result, err := retryableExec(db.mainDB, query, text, groupID, imagePath, postID)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("post not found")
	}
	return nil
}

// DeletePost removes a post. Comments cascade via FK.
func (db *Database) DeletePost(postID int64) error {
	result, err := retryableExec(db.mainDB, `DELETE FROM posts WHERE id = ?`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("post not found")
	}
	return nil
}

// CountAllPosts returns the total number of posts
func (db *Database) CountAllPosts() (int, error) {
	var count int
	err := retryableQueryRowScan(db.mainDB, `SELECT COUNT(*) FROM posts`, nil, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// GetPostsPage retrieves one page of all posts, newest first
func (db *Database) GetPostsPage(page, pageSize int) ([]*models.Post, error) {
	offset := (page - 1) * pageSize
	query := query_selectPosts + query_orderPosts

	rows, err := retryableQuery(db.mainDB, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts page: %w", err)
	}
	defer rows.Close()

	return scanPostRows(rows)
}

// CountPostsByGroup returns the number of posts in a group
func (db *Database) CountPostsByGroup(groupID int64) (int, error) {
	var count int
	err := retryableQueryRowScan(db.mainDB,
		`SELECT COUNT(*) FROM posts WHERE group_id = ?`, []interface{}{groupID}, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count group posts: %w", err)
	}
	return count, nil
}

// GetGroupPostsPage retrieves one page of a group's posts, newest first
func (db *Database) GetGroupPostsPage(groupID int64, page, pageSize int) ([]*models.Post, error) {
	offset := (page - 1) * pageSize
	query := query_selectPosts + ` WHERE p.group_id = ?` + query_orderPosts

	rows, err := retryableQuery(db.mainDB, query, groupID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query group posts page: %w", err)
	}
	defer rows.Close()

	return scanPostRows(rows)
}

// CountPostsByAuthor returns the number of posts written by a user
func (db *Database) CountPostsByAuthor(authorID int64) (int, error) {
	var count int
	err := retryableQueryRowScan(db.mainDB,
		`SELECT COUNT(*) FROM posts WHERE author_id = ?`, []interface{}{authorID}, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count author posts: %w", err)
	}
	return count, nil
}

// GetAuthorPostsPage retrieves one page of an author's posts, newest first
func (db *Database) GetAuthorPostsPage(authorID int64, page, pageSize int) ([]*models.Post, error) {
	offset := (page - 1) * pageSize
	query := query_selectPosts + ` WHERE p.author_id = ?` + query_orderPosts

	rows, err := retryableQuery(db.mainDB, query, authorID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query author posts page: %w", err)
	}
	defer rows.Close()

	return scanPostRows(rows)
}

// CountFeedPosts returns the number of posts by authors the user follows
func (db *Database) CountFeedPosts(followerID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM posts p
		JOIN follows f ON p.author_id = f.followee_id
		WHERE f.follower_id = ?`
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{followerID}, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count feed posts: %w", err)
	}
	return count, nil
}

// GetFeedPostsPage retrieves one page of posts by authors the user follows
func (db *Database) GetFeedPostsPage(followerID int64, page, pageSize int) ([]*models.Post, error) {
	offset := (page - 1) * pageSize
	query := query_selectPosts + `
	JOIN follows f ON p.author_id = f.followee_id
	WHERE f.follower_id = ?` + query_orderPosts

	rows, err := retryableQuery(db.mainDB, query, followerID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed posts page: %w", err)
	}
	defer rows.Close()

	return scanPostRows(rows)
}
