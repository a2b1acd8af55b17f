package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugblog/internal/models"
)

// postPage renders a single post with its comments
func (s *WebServer) postPage(c *gin.Context) {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Post Not Found", "invalid post id")
		return
	}

	post, err := s.DB.GetPostByID(postID)
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Post Not Found", err.Error())
		return
	}

	comments, err := s.DB.GetCommentsByPost(postID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	data := PostPageData{
		TemplateData: s.getBaseTemplateData(c, "Post by "+post.AuthorName),
		Post:         post,
		Comments:     comments,
		CommentCount: len(comments),
	}

	if session := s.getWebSession(c); session != nil {
		data.CanEdit = session.UserID == post.AuthorID
	}

	s.renderTemplate(c, "post_detail.html", data)
}

// addComment attaches a comment to a post. Guests are sent to the
// login page; invalid comments are dropped without an error page and
// the client lands back on the post detail either way.
func (s *WebServer) addComment(c *gin.Context) {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Post Not Found", "invalid post id")
		return
	}

	session := s.getWebSession(c)
	if session == nil {
		c.Redirect(http.StatusSeeOther, "/login?next="+c.Request.URL.Path)
		return
	}

	post, err := s.DB.GetPostByID(postID)
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Post Not Found", err.Error())
		return
	}

	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	text := strings.TrimSpace(models.NormalizeText(c.PostForm("text")))
	if text == "" {
		// Empty comments are silently dropped
		c.Redirect(http.StatusSeeOther, detailURL)
		return
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: session.UserID,
		Text:     text,
	}
	if _, err := s.DB.InsertComment(comment); err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	c.Redirect(http.StatusSeeOther, detailURL)
}
