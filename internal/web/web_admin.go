package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugblog/internal/database"
	"github.com/go-while/go-pugblog/internal/models"
)

// AdminPageData represents data for the admin dashboard
type AdminPageData struct {
	TemplateData
	Users      []*models.User
	Groups     []*models.Group
	UserCount  int
	PostCount  int
	CacheStats map[string]interface{}
	DBStats    *database.Stats
	Error      string
	Success    string
}

// adminPage renders the admin dashboard
func (s *WebServer) adminPage(c *gin.Context) {
	users, err := s.DB.GetAllUsers()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	// Hide sensitive fields from page data
	for _, user := range users {
		user.PasswordHash = ""
		user.SessionID = ""
	}

	groups, err := s.DB.GetAllGroupsWithCounts()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	postCount, err := s.DB.CountAllPosts()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	userCount, err := s.DB.CountUsers()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	data := AdminPageData{
		TemplateData: s.getBaseTemplateData(c, "Admin"),
		Users:        users,
		Groups:       groups,
		UserCount:    userCount,
		PostCount:    postCount,
		CacheStats:   s.PageCache.GetStats(),
		DBStats:      s.DB.GetStats(),
		Error:        c.Query("error"),
		Success:      c.Query("success"),
	}

	s.renderTemplate(c, "admin.html", data)
}

// slugify converts a group title to a URL slug
func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	for _, char := range slug {
		switch {
		case (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9'):
			b.WriteRune(char)
		case char == ' ' || char == '-' || char == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// adminCreateGroup creates a new group from the admin form
func (s *WebServer) adminCreateGroup(c *gin.Context) {
	title := strings.TrimSpace(c.PostForm("title"))
	slug := strings.TrimSpace(c.PostForm("slug"))
	description := strings.TrimSpace(c.PostForm("description"))

	if title == "" {
		c.Redirect(http.StatusSeeOther, "/admin?error=Group+title+is+required")
		return
	}
	if slug == "" {
		slug = slugify(title)
	}
	if slug == "" {
		c.Redirect(http.StatusSeeOther, "/admin?error=Group+slug+is+required")
		return
	}

	group := &models.Group{
		Title:       title,
		Slug:        slug,
		Description: description,
	}
	if _, err := s.DB.InsertGroup(group); err != nil {
		c.Redirect(http.StatusSeeOther, "/admin?error=Failed+to+create+group")
		return
	}

	c.Redirect(http.StatusSeeOther, "/admin?success=Group+created")
}

// adminDeleteUser removes a user account and their content
func (s *WebServer) adminDeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.PostForm("user_id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/admin?error=Invalid+user+ID")
		return
	}

	// The first user account cannot be deleted
	if userID == 1 {
		c.Redirect(http.StatusSeeOther, "/admin?error=Cannot+delete+the+primary+admin")
		return
	}

	if err := s.DB.DeleteUser(userID); err != nil {
		c.Redirect(http.StatusSeeOther, "/admin?error=Failed+to+delete+user")
		return
	}

	c.Redirect(http.StatusSeeOther, "/admin?success=User+deleted")
}

// adminClearCache flushes the rendered page cache
func (s *WebServer) adminClearCache(c *gin.Context) {
	s.PageCache.Clear()
	c.Redirect(http.StatusSeeOther, "/admin?success=Cache+cleared")
}

// adminEnableRegistration turns user registration on
func (s *WebServer) adminEnableRegistration(c *gin.Context) {
	if err := s.DB.SetSettingBool("registration_enabled", true); err != nil {
		c.Redirect(http.StatusSeeOther, "/admin?error=Failed+to+update+setting")
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin?success=Registration+enabled")
}

// adminDisableRegistration turns user registration off
func (s *WebServer) adminDisableRegistration(c *gin.Context) {
	if err := s.DB.SetSettingBool("registration_enabled", false); err != nil {
		c.Redirect(http.StatusSeeOther, "/admin?error=Failed+to+update+setting")
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin?success=Registration+disabled")
}
