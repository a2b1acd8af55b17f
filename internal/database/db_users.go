package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-while/go-pugblog/internal/models"
)

// InsertUser creates a new user account and returns its ID
func (db *Database) InsertUser(user *models.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, display_name)
		VALUES (?, ?, ?, ?)`

	result, err := retryableExec(db.mainDB, query,
		user.Username, user.Email, user.PasswordHash, user.DisplayName)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("username or email already taken")
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user ID: %w", err)
	}
	user.ID = id
	return id, nil
}

const query_scanUser = `SELECT id, username, email, password_hash, display_name,
	session_id, last_login_ip, session_expires_at, login_attempts, created_at, updated_at
	FROM users`

// GetUserByID retrieves a user by their ID
func (db *Database) GetUserByID(userID int64) (*models.User, error) {
	query := query_scanUser + ` WHERE id = ?`

	var user models.User
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{userID},
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.SessionID, &user.LastLoginIP,
		&user.SessionExpiresAt, &user.LoginAttempts, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by their username
func (db *Database) GetUserByUsername(username string) (*models.User, error) {
	query := query_scanUser + ` WHERE username = ?`

	var user models.User
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{username},
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.SessionID, &user.LastLoginIP,
		&user.SessionExpiresAt, &user.LoginAttempts, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by their email address
func (db *Database) GetUserByEmail(email string) (*models.User, error) {
	query := query_scanUser + ` WHERE email = ?`

	var user models.User
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{email},
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.SessionID, &user.LastLoginIP,
		&user.SessionExpiresAt, &user.LoginAttempts, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetAllUsers retrieves all users ordered by creation date
func (db *Database) GetAllUsers() ([]*models.User, error) {
	query := query_scanUser + ` ORDER BY created_at ASC`

	rows, err := retryableQuery(db.mainDB, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.PasswordHash,
			&user.DisplayName, &user.SessionID, &user.LastLoginIP,
			&user.SessionExpiresAt, &user.LoginAttempts, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdateUserPassword updates a user's password hash
func (db *Database) UpdateUserPassword(userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := retryableExec(db.mainDB, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateUserEmail updates a user's email address
func (db *Database) UpdateUserEmail(userID int64, email string) error {
	query := `UPDATE users SET email = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := retryableExec(db.mainDB, query, email, userID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("email already in use")
		}
		return fmt.Errorf("failed to update email: %w", err)
	}
	return nil
}

// UpdateUserDisplayName updates a user's display name
func (db *Database) UpdateUserDisplayName(userID int64, displayName string) error {
	query := `UPDATE users SET display_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := retryableExec(db.mainDB, query, displayName, userID)
	if err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	return nil
}

// DeleteUser removes a user account. Posts and comments cascade via FK.
func (db *Database) DeleteUser(userID int64) error {
	query := `DELETE FROM users WHERE id = ?`
	result, err := retryableExec(db.mainDB, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// CountUsers returns the total number of registered users
func (db *Database) CountUsers() (int, error) {
	var count int
	err := retryableQueryRowScan(db.mainDB, `SELECT COUNT(*) FROM users`, nil, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// InsertUserPermission grants a permission to a user
func (db *Database) InsertUserPermission(userID int64, permission string) error {
	query := `INSERT OR IGNORE INTO user_permissions (user_id, permission) VALUES (?, ?)`
	_, err := retryableExec(db.mainDB, query, userID, permission)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

// RemoveUserPermission revokes a permission from a user
func (db *Database) RemoveUserPermission(userID int64, permission string) error {
	query := `DELETE FROM user_permissions WHERE user_id = ? AND permission = ?`
	_, err := retryableExec(db.mainDB, query, userID, permission)
	if err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	return nil
}

// GetUserPermissions retrieves all permissions granted to a user
func (db *Database) GetUserPermissions(userID int64) ([]*models.UserPermission, error) {
	query := `SELECT id, user_id, permission, granted_at
		FROM user_permissions WHERE user_id = ? ORDER BY permission ASC`

	rows, err := retryableQuery(db.mainDB, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	var perms []*models.UserPermission
	for rows.Next() {
		perm := &models.UserPermission{}
		if err := rows.Scan(&perm.ID, &perm.UserID, &perm.Permission, &perm.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, perm)
	}

	return perms, rows.Err()
}

// UserHasPermission checks whether a user holds a specific permission
func (db *Database) UserHasPermission(userID int64, permission string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_permissions WHERE user_id = ? AND permission = ?`
	err := retryableQueryRowScan(db.mainDB, query, []interface{}{userID, permission}, &count)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return count > 0, nil
}
