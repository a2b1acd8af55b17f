package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-while/go-pugblog/internal/models"
)

// InsertGroup creates a new group and returns its ID
func (db *Database) InsertGroup(group *models.Group) (int64, error) {
	query := `INSERT INTO groups (title, slug, description) VALUES (?, ?, ?)`

	result, err := retryableExec(db.mainDB, query, group.Title, group.Slug, group.Description)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("group slug already exists")
		}
		return 0, fmt.Errorf("failed to insert group: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get group ID: %w", err)
	}
	group.ID = id
	return id, nil
}

// GetGroupBySlug retrieves a group by its URL slug
func (db *Database) GetGroupBySlug(slug string) (*models.Group, error) {
	query := `SELECT id, title, slug, description, created_at FROM groups WHERE slug = ?`

	var group models.Group
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{slug},
		&group.ID, &group.Title, &group.Slug, &group.Description, &group.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("group not found")
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

// GetGroupByID retrieves a group by its ID
func (db *Database) GetGroupByID(groupID int64) (*models.Group, error) {
	query := `SELECT id, title, slug, description, created_at FROM groups WHERE id = ?`

	var group models.Group
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{groupID},
		&group.ID, &group.Title, &group.Slug, &group.Description, &group.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("group not found")
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

// GetAllGroupsWithCounts retrieves all groups with their post counts
func (db *Database) GetAllGroupsWithCounts() ([]*models.Group, error) {
	query := `
		SELECT
			g.id, g.title, g.slug, g.description, g.created_at,
			COALESCE(COUNT(p.id), 0) as post_count
		FROM groups g
		LEFT JOIN posts p ON g.id = p.group_id
		GROUP BY g.id, g.title, g.slug, g.description, g.created_at
		ORDER BY g.title ASC
	`

	rows, err := retryableQuery(db.mainDB, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups with counts: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		err := rows.Scan(
			&group.ID, &group.Title, &group.Slug,
			&group.Description, &group.CreatedAt, &group.PostCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group with count: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}
