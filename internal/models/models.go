// Package models defines core data structures for go-pugblog
package models

import (
	"fmt"
	"time"
)

// User represents a web user account
type User struct {
	ID               int64      `json:"id" db:"id"`
	Username         string     `json:"username" db:"username"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"password_hash" db:"password_hash"`
	DisplayName      string     `json:"display_name" db:"display_name"`
	SessionID        string     `json:"session_id" db:"session_id"`                 // Current active session (64 chars)
	LastLoginIP      string     `json:"last_login_ip" db:"last_login_ip"`           // IP of last login (for logging only)
	SessionExpiresAt *time.Time `json:"session_expires_at" db:"session_expires_at"` // Session expiration (sliding)
	LoginAttempts    int        `json:"login_attempts" db:"login_attempts"`         // Failed login attempts counter
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// UserPermission represents a permission granted to a user
type UserPermission struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Permission string    `json:"permission" db:"permission"`
	GrantedAt  time.Time `json:"granted_at" db:"granted_at"`
}

// Group represents a topic a post can optionally belong to.
// Groups are created by administrators and never deleted in visible flows.
type Group struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"` // unique, used in URLs
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	PostCount   int64     `json:"post_count" db:"post_count"` // filled by listing queries, not stored
}

// Post represents a single authored text entry.
// Only the author may mutate a post; CreatedAt is set once and never changes.
type Post struct {
	ID        int64      `json:"id" db:"id"`
	Text      string     `json:"text" db:"text"`
	AuthorID  int64      `json:"author_id" db:"author_id"`
	GroupID   *int64     `json:"group_id" db:"group_id"`     // nil when the post has no group
	ImagePath string     `json:"image_path" db:"image_path"` // relative path under the upload dir, "" when absent
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	EditedAt  *time.Time `json:"edited_at" db:"edited_at"` // stamped on successful edit

	// Joined display fields, not stored on the posts table
	AuthorName string `json:"author_name" db:"-"`
	GroupTitle string `json:"group_title" db:"-"`
	GroupSlug  string `json:"group_slug" db:"-"`
}

// Comment represents a text reply attached to exactly one post.
// Comments are immutable in visible flows after creation.
type Comment struct {
	ID        int64      `json:"id" db:"id"`
	PostID    int64      `json:"post_id" db:"post_id"`
	AuthorID  int64      `json:"author_id" db:"author_id"`
	Text      string     `json:"text" db:"text"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	EditedAt  *time.Time `json:"edited_at" db:"edited_at"`

	AuthorName string `json:"author_name" db:"-"`
}

// Follow represents a directed subscription edge between two users.
// FollowerID is the subscribing user, FolloweeID the author being followed.
// At most one edge exists per (follower, followee) pair.
type Follow struct {
	ID         int64     `json:"id" db:"id"`
	FollowerID int64     `json:"follower_id" db:"follower_id"`
	FolloweeID int64     `json:"followee_id" db:"followee_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// PrintCreated returns a human-readable time difference from now
func (p *Post) PrintCreated() string {
	return printAgo(p.CreatedAt)
}

// PrintCreated returns a human-readable time difference from now
func (c *Comment) PrintCreated() string {
	return printAgo(c.CreatedAt)
}

// IsEdited reports whether the post has been edited since creation
func (p *Post) IsEdited() bool {
	return p.EditedAt != nil && !p.EditedAt.IsZero()
}

func printAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	totalDays := int(diff.Hours() / 24)

	if diff < time.Minute {
		return fmt.Sprintf("%d seconds ago", int(diff.Seconds()))
	} else if diff < time.Hour {
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	} else if diff < 48*time.Hour {
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	} else if totalDays < 365 {
		return fmt.Sprintf("%d days ago", totalDays)
	}
	years := totalDays / 365
	if years == 1 {
		return "1 Year ago"
	}
	return fmt.Sprintf("%d Years ago", years)
}

// PaginationInfo represents pagination information for templates
type PaginationInfo struct {
	CurrentPage int
	PageSize    int
	TotalCount  int
	TotalPages  int
	HasNext     bool
	HasPrev     bool
	NextPage    int
	PrevPage    int
}

// NewPaginationInfo creates pagination info
func NewPaginationInfo(page, pageSize, totalCount int) *PaginationInfo {
	totalPages := (totalCount + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	return &PaginationInfo{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
		NextPage:    page + 1,
		PrevPage:    page - 1,
	}
}

// ClampPage clamps a requested page number into [1, totalPages].
// Out-of-range requests land on the nearest valid page instead of erroring.
func ClampPage(page, pageSize, totalCount int) int {
	totalPages := (totalCount + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
