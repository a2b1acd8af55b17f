package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/models"
)

// followFeedPage renders posts by authors the logged-in user follows
func (s *WebServer) followFeedPage(c *gin.Context) {
	session := s.getWebSession(c)
	if session == nil {
		c.Redirect(http.StatusSeeOther, "/login?next=/follow/")
		return
	}

	totalCount, err := s.DB.CountFeedPosts(session.UserID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	page := models.ClampPage(parsePageParam(c), config.PostsPerPage, totalCount)

	posts, err := s.DB.GetFeedPostsPage(session.UserID, page, config.PostsPerPage)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	data := FollowPageData{
		TemplateData: s.getBaseTemplateData(c, "Your Feed"),
		Posts:        posts,
		Pagination:   models.NewPaginationInfo(page, config.PostsPerPage, totalCount),
	}

	s.renderTemplate(c, "follow.html", data)
}

// profileFollow subscribes the logged-in user to an author.
// Repeated follows and self-follows change nothing.
func (s *WebServer) profileFollow(c *gin.Context) {
	session := s.getWebSession(c)
	if session == nil {
		c.Redirect(http.StatusSeeOther, "/login?next="+c.Request.URL.Path)
		return
	}

	username := c.Param("username")
	author, err := s.DB.GetUserByUsername(username)
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Author Not Found", "no user "+username)
		return
	}

	profileURL := "/profile/" + author.Username + "/"

	if author.ID == session.UserID {
		// Self-follow is a silent no-op
		c.Redirect(http.StatusSeeOther, profileURL)
		return
	}

	if err := s.DB.FollowAuthor(session.UserID, author.ID); err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	c.Redirect(http.StatusSeeOther, profileURL)
}

// profileUnfollow removes a subscription. Unfollowing someone the user
// never followed changes nothing.
func (s *WebServer) profileUnfollow(c *gin.Context) {
	session := s.getWebSession(c)
	if session == nil {
		c.Redirect(http.StatusSeeOther, "/login?next="+c.Request.URL.Path)
		return
	}

	username := c.Param("username")
	author, err := s.DB.GetUserByUsername(username)
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Author Not Found", "no user "+username)
		return
	}

	if err := s.DB.UnfollowAuthor(session.UserID, author.ID); err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	c.Redirect(http.StatusSeeOther, "/profile/"+author.Username+"/")
}
