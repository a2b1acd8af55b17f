// Package web provides the HTTP server and web interface for go-pugblog
package web

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugblog/internal/cache"
	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/database"
	"github.com/go-while/go-pugblog/internal/models"
)

// WebServer represents the web server
type WebServer struct {
	DB        *database.Database
	Router    *gin.Engine
	Config    *config.WebConfig
	PageCache *cache.PageCache
	templates *template.Template
	StartTime time.Time // Track server start time for uptime calculations
}

// TemplateData represents common template data
type TemplateData struct {
	Title               template.HTML
	CurrentTime         string
	Port                int
	User                *AuthUser
	IsAdmin             bool
	AppVersion          string
	RegistrationEnabled bool
	FlashError          string
	FlashSuccess        string
}

// IndexPageData represents data for the home page post feed
type IndexPageData struct {
	TemplateData
	Posts      []*models.Post
	Pagination *models.PaginationInfo
}

// GroupPageData represents data for a single group page
type GroupPageData struct {
	TemplateData
	Group      *models.Group
	Posts      []*models.Post
	Pagination *models.PaginationInfo
}

// GroupListPageData represents data for the group listing page
type GroupListPageData struct {
	TemplateData
	Groups []*models.Group
}

// ProfilePageData represents data for an author profile page
type ProfilePageData struct {
	TemplateData
	Author     *models.User
	Posts      []*models.Post
	Pagination *models.PaginationInfo
	PostCount  int
	Followers  int
	Follows    int
	Following  bool
	IsOwnPage  bool
}

// PostPageData represents data for a post detail page
type PostPageData struct {
	TemplateData
	Post         *models.Post
	Comments     []*models.Comment
	CommentCount int
	CanEdit      bool
}

// PostFormPageData represents data for the create/edit post form
type PostFormPageData struct {
	TemplateData
	Post      *models.Post
	Groups    []*models.Group
	IsEdit    bool
	Error     string
	TextValue string
	GroupID   int64
}

// FollowPageData represents data for the follow feed page
type FollowPageData struct {
	TemplateData
	Posts      []*models.Post
	Pagination *models.PaginationInfo
}

// NewServer creates a new web server instance
func NewServer(db *database.Database, webconfig *config.WebConfig) *WebServer {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// Configure Gin to trust reverse proxy headers
	// Set trusted proxies for common reverse proxy setups (nginx, etc.)
	router.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}

	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if webconfig.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}

	// Apply security middleware
	router.Use(secure.New(secureConfig))

	server := &WebServer{
		DB:        db,
		Router:    router,
		Config:    webconfig,
		PageCache: cache.NewPageCache(128, config.IndexCacheTTL),
		templates: nil, // Templates are loaded individually per handler
	}

	// Access log in Apache combined format
	router.Use(server.ApacheLogFormat())

	// Add reverse proxy middleware for handling X-Forwarded headers
	router.Use(server.ReverseProxyMiddleware())

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	// Static files first (highest priority)
	s.Router.Static("/static", s.Config.StaticDir)

	// Uploaded post images
	s.Router.Static("/media", s.Config.UploadDir)

	s.Router.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	s.Router.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, "User-agent: *\nDisallow:\n")
	})
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	// Authentication routes
	s.Router.GET("/login", s.loginPage)
	s.Router.GET("/login/", s.loginPage)
	s.Router.POST("/login", s.loginSubmit)
	s.Router.POST("/login/", s.loginSubmit)
	s.Router.GET("/register", s.registerPage)
	s.Router.GET("/register/", s.registerPage)
	s.Router.POST("/register", s.registerSubmit)
	s.Router.POST("/register/", s.registerSubmit)
	s.Router.GET("/logout", s.logout)
	s.Router.GET("/logout/", s.logout)

	// Own account settings
	s.Router.GET("/settings", s.settingsPage)
	s.Router.GET("/settings/", s.settingsPage)
	s.Router.POST("/settings", s.settingsUpdate)
	s.Router.POST("/settings/", s.settingsUpdate)

	// Home page post feed (response-cached)
	s.Router.GET("/", s.CachePage(config.IndexCacheKeyPrefix), s.homePage)

	// Groups
	s.Router.GET("/group", s.groupListPage)
	s.Router.GET("/group/", s.groupListPage)
	s.Router.GET("/group/:slug", s.groupPage)
	s.Router.GET("/group/:slug/", s.groupPage)

	// Author profiles and subscriptions
	s.Router.GET("/profile/:username", s.profilePage)
	s.Router.GET("/profile/:username/", s.profilePage)
	s.Router.GET("/profile/:username/follow", s.WebAuthRequired(), s.profileFollow)
	s.Router.GET("/profile/:username/follow/", s.WebAuthRequired(), s.profileFollow)
	s.Router.POST("/profile/:username/follow", s.WebAuthRequired(), s.profileFollow)
	s.Router.POST("/profile/:username/follow/", s.WebAuthRequired(), s.profileFollow)
	s.Router.GET("/profile/:username/unfollow", s.WebAuthRequired(), s.profileUnfollow)
	s.Router.GET("/profile/:username/unfollow/", s.WebAuthRequired(), s.profileUnfollow)
	s.Router.GET("/follow", s.WebAuthRequired(), s.followFeedPage)
	s.Router.GET("/follow/", s.WebAuthRequired(), s.followFeedPage)

	// Posts
	s.Router.GET("/create", s.WebAuthRequired(), s.createPostPage)
	s.Router.GET("/create/", s.WebAuthRequired(), s.createPostPage)
	s.Router.POST("/create", s.WebAuthRequired(), s.createPostSubmit)
	s.Router.POST("/create/", s.WebAuthRequired(), s.createPostSubmit)
	s.Router.GET("/posts/:id", s.postPage)
	s.Router.GET("/posts/:id/", s.postPage)
	s.Router.GET("/posts/:id/edit", s.WebAuthRequired(), s.editPostPage)
	s.Router.GET("/posts/:id/edit/", s.WebAuthRequired(), s.editPostPage)
	s.Router.POST("/posts/:id/edit", s.WebAuthRequired(), s.editPostSubmit)
	s.Router.POST("/posts/:id/edit/", s.WebAuthRequired(), s.editPostSubmit)
	s.Router.POST("/posts/:id/comment", s.addComment)
	s.Router.POST("/posts/:id/comment/", s.addComment)

	// Admin interface (authenticated)
	s.Router.GET("/admin", s.WebAdminRequired(), s.adminPage)
	s.Router.GET("/admin/", s.WebAdminRequired(), s.adminPage)
	s.Router.POST("/admin/groups", s.WebAdminRequired(), s.adminCreateGroup)
	s.Router.POST("/admin/users/delete", s.WebAdminRequired(), s.adminDeleteUser)
	s.Router.POST("/admin/cache/clear", s.WebAdminRequired(), s.adminClearCache)
	s.Router.POST("/admin/registration/enable", s.WebAdminRequired(), s.adminEnableRegistration)
	s.Router.POST("/admin/registration/disable", s.WebAdminRequired(), s.adminDisableRegistration)

	// Everything else is a 404
	s.Router.NoRoute(func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound, "Page Not Found", "no route for "+c.Request.URL.Path)
	})
}

// Start starts the web server with SSL support if configured
func (s *WebServer) Start() error {
	addr := ":" + strconv.Itoa(s.Config.ListenPort)
	s.StartTime = time.Now() // Set the start time for uptime calculations
	if s.Config.SSL {
		if s.Config.CertFile == "" || s.Config.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		log.Printf("Starting HTTPS server on %s", addr)
		return s.Router.RunTLS(addr, s.Config.CertFile, s.Config.KeyFile)
	} else {
		log.Printf("Starting HTTP server on %s", addr)
		return s.Router.Run(addr)
	}
}

// ReverseProxyMiddleware handles X-Forwarded headers when running behind a reverse proxy
func (s *WebServer) ReverseProxyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handle X-Forwarded-Proto to detect if the original request was HTTPS
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" {
			c.Request.URL.Scheme = "https"
		}

		// Handle X-Forwarded-For to get the real client IP
		if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
			// Take the first IP from the list (original client)
			ips := strings.Split(xff, ",")
			if len(ips) > 0 {
				clientIP := strings.TrimSpace(ips[0])
				c.Request.RemoteAddr = clientIP + ":0"
			}
		}

		// Handle X-Real-IP as an alternative
		if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
			c.Request.RemoteAddr = realIP + ":0"
		}

		// Handle X-Forwarded-Host to get the original host
		if host := c.GetHeader("X-Forwarded-Host"); host != "" {
			c.Request.Host = host
		}

		c.Next()
	}
}

func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
		)
	})
}
