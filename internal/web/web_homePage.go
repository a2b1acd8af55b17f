package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/models"
)

// homePage renders the latest posts across all authors, newest first
func (s *WebServer) homePage(c *gin.Context) {
	totalCount, err := s.DB.CountAllPosts()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	page := models.ClampPage(parsePageParam(c), config.PostsPerPage, totalCount)

	posts, err := s.DB.GetPostsPage(page, config.PostsPerPage)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	data := IndexPageData{
		TemplateData: s.getBaseTemplateData(c, "Latest Posts"),
		Posts:        posts,
		Pagination:   models.NewPaginationInfo(page, config.PostsPerPage, totalCount),
	}

	s.renderTemplate(c, "index.html", data)
}
