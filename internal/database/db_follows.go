package database

import (
	"fmt"
)

// FollowAuthor creates a subscription edge. Repeated follows are no-ops.
func (db *Database) FollowAuthor(followerID, followeeID int64) error {
	if followerID == followeeID {
		return fmt.Errorf("cannot follow yourself")
	}

	query := `INSERT OR IGNORE INTO follows (follower_id, followee_id) VALUES (?, ?)`
	_, err := retryableExec(db.mainDB, query, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("failed to follow author: %w", err)
	}
	return nil
}

// UnfollowAuthor removes a subscription edge. Missing edges are no-ops.
func (db *Database) UnfollowAuthor(followerID, followeeID int64) error {
	query := `DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`
	_, err := retryableExec(db.mainDB, query, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("failed to unfollow author: %w", err)
	}
	return nil
}

// IsFollowing checks whether follower subscribes to followee
func (db *Database) IsFollowing(followerID, followeeID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followee_id = ?`
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{followerID, followeeID}, &count)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return count > 0, nil
}

// CountFollowers returns how many users follow the given author
func (db *Database) CountFollowers(followeeID int64) (int, error) {
	var count int
	err := retryableQueryRowScan(db.mainDB,
		`SELECT COUNT(*) FROM follows WHERE followee_id = ?`, []interface{}{followeeID}, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return count, nil
}

// CountFollowing returns how many authors the given user follows
func (db *Database) CountFollowing(followerID int64) (int, error) {
	var count int
	err := retryableQueryRowScan(db.mainDB,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ?`, []interface{}{followerID}, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count following: %w", err)
	}
	return count, nil
}
