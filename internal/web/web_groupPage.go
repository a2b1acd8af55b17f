package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/models"
)

// groupListPage renders all groups with their post counts
func (s *WebServer) groupListPage(c *gin.Context) {
	groups, err := s.DB.GetAllGroupsWithCounts()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	data := GroupListPageData{
		TemplateData: s.getBaseTemplateData(c, "Groups"),
		Groups:       groups,
	}

	s.renderTemplate(c, "group_list.html", data)
}

// groupPage renders one group's posts, newest first
func (s *WebServer) groupPage(c *gin.Context) {
	slug := c.Param("slug")

	group, err := s.DB.GetGroupBySlug(slug)
	if err != nil {
		s.renderError(c, http.StatusNotFound, "Group Not Found", "no group with slug "+slug)
		return
	}

	totalCount, err := s.DB.CountPostsByGroup(group.ID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	page := models.ClampPage(parsePageParam(c), config.PostsPerPage, totalCount)

	posts, err := s.DB.GetGroupPostsPage(group.ID, page, config.PostsPerPage)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	data := GroupPageData{
		TemplateData: s.getBaseTemplateData(c, group.Title),
		Group:        group,
		Posts:        posts,
		Pagination:   models.NewPaginationInfo(page, config.PostsPerPage, totalCount),
	}

	s.renderTemplate(c, "group.html", data)
}
