package database

import (
	"database/sql"
)

// GetSettingValue retrieves a site setting from the site_settings table
func (db *Database) GetSettingValue(key string) (string, error) {
	var value string
	err := retryableQueryRowScan(db.mainDB, "SELECT value FROM site_settings WHERE key = ?", []interface{}{key}, &value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil // Return empty string for missing keys
		}
		return "", err
	}
	return value, nil
}

// SetSettingValue sets or updates a site setting
func (db *Database) SetSettingValue(key, value string) error {
	_, err := retryableExec(db.mainDB, `
		INSERT OR REPLACE INTO site_settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`, key, value)
	return err
}

// GetSettingBool retrieves a boolean site setting
func (db *Database) GetSettingBool(key string) (bool, error) {
	value, err := db.GetSettingValue(key)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetSettingBool sets a boolean site setting
func (db *Database) SetSettingBool(key string, value bool) error {
	var stringValue string
	if value {
		stringValue = "true"
	} else {
		stringValue = "false"
	}
	return db.SetSettingValue(key, stringValue)
}

// IsRegistrationEnabled checks if user registration is enabled
func (db *Database) IsRegistrationEnabled() (bool, error) {
	// Default to true if no setting exists
	value, err := db.GetSettingValue("registration_enabled")
	if err != nil {
		return false, err
	}
	if value == "" {
		return true, nil
	}
	return value == "true", nil
}
