package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/models"
)

// profilePage renders an author's public profile with their posts
func (s *WebServer) profilePage(c *gin.Context) {
	username := c.Param("username")

	author, err := s.DB.GetUserByUsername(username)
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Author Not Found", "no user "+username)
		return
	}

	totalCount, err := s.DB.CountPostsByAuthor(author.ID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	page := models.ClampPage(parsePageParam(c), config.PostsPerPage, totalCount)

	posts, err := s.DB.GetAuthorPostsPage(author.ID, page, config.PostsPerPage)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	followers, err := s.DB.CountFollowers(author.ID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	follows, err := s.DB.CountFollowing(author.ID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	// Never expose the password hash in page data
	author.PasswordHash = ""
	author.SessionID = ""

	data := ProfilePageData{
		TemplateData: s.getBaseTemplateData(c, "Posts by "+author.Username),
		Author:       author,
		Posts:        posts,
		Pagination:   models.NewPaginationInfo(page, config.PostsPerPage, totalCount),
		PostCount:    totalCount,
		Followers:    followers,
		Follows:      follows,
	}

	if session := s.getWebSession(c); session != nil {
		data.IsOwnPage = session.UserID == author.ID
		if !data.IsOwnPage {
			if following, err := s.DB.IsFollowing(session.UserID, author.ID); err == nil {
				data.Following = following
			}
		}
	}

	s.renderTemplate(c, "profile.html", data)
}

// SettingsPageData represents data for the account settings page
type SettingsPageData struct {
	TemplateData
	Error   string
	Success string
}

// settingsPage displays the account settings form
func (s *WebServer) settingsPage(c *gin.Context) {
	session := s.getWebSession(c)
	if session == nil {
		c.Redirect(http.StatusSeeOther, "/login?next=/settings")
		return
	}

	data := SettingsPageData{
		TemplateData: s.getBaseTemplateData(c, "Settings"),
	}

	s.renderTemplate(c, "settings.html", data)
}

// settingsUpdate handles password and display name changes
func (s *WebServer) settingsUpdate(c *gin.Context) {
	session := s.getWebSession(c)
	if session == nil {
		c.Redirect(http.StatusSeeOther, "/login?next=/settings")
		return
	}

	action := c.PostForm("action")
	switch action {
	case "password":
		s.settingsChangePassword(c, session)
	case "display_name":
		displayName := c.PostForm("display_name")
		if displayName == "" {
			session.SetError("Display name cannot be empty")
		} else if err := s.DB.UpdateUserDisplayName(session.UserID, displayName); err != nil {
			session.SetError("Failed to update display name")
		} else {
			session.SetSuccess("Display name updated")
		}
		c.Redirect(http.StatusSeeOther, "/settings")
	default:
		session.SetError("Unknown settings action")
		c.Redirect(http.StatusSeeOther, "/settings")
	}
}

// settingsChangePassword verifies the current password before setting a new one
func (s *WebServer) settingsChangePassword(c *gin.Context, session *SessionData) {
	currentPassword := c.PostForm("current_password")
	newPassword1 := c.PostForm("new_password1")
	newPassword2 := c.PostForm("new_password2")

	user, err := s.DB.GetUserByID(session.UserID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	if !checkPassword(currentPassword, user.PasswordHash) {
		session.SetError("Current password is incorrect")
		c.Redirect(http.StatusSeeOther, "/settings")
		return
	}

	if newPassword1 != newPassword2 {
		session.SetError("New passwords do not match")
		c.Redirect(http.StatusSeeOther, "/settings")
		return
	}

	if err := validatePassword(newPassword1); err != nil {
		session.SetError(err.Error())
		c.Redirect(http.StatusSeeOther, "/settings")
		return
	}

	passwordHash, err := hashPassword(newPassword1)
	if err != nil {
		session.SetError("Failed to process password")
		c.Redirect(http.StatusSeeOther, "/settings")
		return
	}

	if err := s.DB.UpdateUserPassword(user.ID, passwordHash); err != nil {
		session.SetError("Failed to update password")
		c.Redirect(http.StatusSeeOther, "/settings")
		return
	}

	session.SetSuccess("Password updated")
	c.Redirect(http.StatusSeeOther, "/settings")
}
