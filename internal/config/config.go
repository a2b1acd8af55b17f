// Package config provides configuration management for go-pugblog.
package config

import (
	"os"
	"strconv"
	"time"
)

var AppVersion = "-unset-" // will be set at build time

const (
	// PostsPerPage is the fixed page size for all post listings.
	PostsPerPage = 10

	// IndexCacheTTL is how long the rendered front page stays cached.
	// Writes do not invalidate it; readers may see listings this stale.
	IndexCacheTTL = 20 * time.Second

	// IndexCacheKeyPrefix namespaces front page entries in the page cache.
	IndexCacheKeyPrefix = "index_page"

	// MaxUploadSize limits image attachments on posts.
	MaxUploadSize = 5 * 1024 * 1024 // 5 MB
)

// MainConfig holds the main configuration for go-pugblog
type MainConfig struct {
	// Web interface settings
	Web *WebConfig `json:"web"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	AppVersion string `json:"app_version"` // Application version, set at build time
}

// WebConfig holds web interface configuration
type WebConfig struct {
	ListenPort  int    `json:"listen_port"`
	SSL         bool   `json:"ssl"`
	CertFile    string `json:"cert_file,omitempty"`
	KeyFile     string `json:"key_file,omitempty"`
	TemplateDir string `json:"template_dir"`
	StaticDir   string `json:"static_dir"`
	UploadDir   string `json:"upload_dir"` // Directory for stored image attachments
	Debug       bool   `json:"debug"`      // Enable debug logging for sessions/auth
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DataDir string `json:"data_dir"` // Directory holding the SQLite database
}

// NewDefaultConfig returns a configuration with sensible defaults.
// Environment variables (optionally loaded from a .env file by the caller)
// override the compiled-in defaults.
func NewDefaultConfig() *MainConfig {
	maincfg := &MainConfig{
		AppVersion: AppVersion,
		Web: &WebConfig{
			ListenPort:  envInt("PUGBLOG_PORT", 11980),
			SSL:         false,
			TemplateDir: envStr("PUGBLOG_TEMPLATES", "web/templates"),
			StaticDir:   envStr("PUGBLOG_STATIC", "web/static"),
			UploadDir:   envStr("PUGBLOG_UPLOADS", "data/uploads"),
		},
		Database: DatabaseConfig{
			DataDir: envStr("PUGBLOG_DATA", "data"),
		},
	}
	return maincfg
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
