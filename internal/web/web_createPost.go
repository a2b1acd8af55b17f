package web

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/models"
	"github.com/google/uuid"
)

// Allowed image extensions for post uploads
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// saveUploadedImage stores an uploaded image under the upload dir with
// a random filename, returning the stored name.
func (s *WebServer) saveUploadedImage(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > config.MaxUploadSize {
		return "", fmt.Errorf("image too large (max %d bytes)", config.MaxUploadSize)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	if err := os.MkdirAll(s.Config.UploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	dst := filepath.Join(s.Config.UploadDir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	return filename, nil
}

// removeUploadedImage deletes a stored upload, ignoring missing files
func (s *WebServer) removeUploadedImage(name string) {
	if name == "" {
		return
	}
	os.Remove(filepath.Join(s.Config.UploadDir, name))
}

// parseGroupField resolves the optional group form field to a group ID
func (s *WebServer) parseGroupField(c *gin.Context) (*int64, error) {
	groupStr := strings.TrimSpace(c.PostForm("group"))
	if groupStr == "" || groupStr == "0" {
		return nil, nil
	}

	groupID, err := strconv.ParseInt(groupStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid group")
	}

	// Group must exist
	if _, err := s.DB.GetGroupByID(groupID); err != nil {
		return nil, fmt.Errorf("group does not exist")
	}

	return &groupID, nil
}

// createPostPage displays the new post form
func (s *WebServer) createPostPage(c *gin.Context) {
	groups, err := s.DB.GetAllGroupsWithCounts()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	data := PostFormPageData{
		TemplateData: s.getBaseTemplateData(c, "New Post"),
		Groups:       groups,
	}

	s.renderTemplate(c, "create_post.html", data)
}

// createPostSubmit creates a new post. The author is always the
// logged-in user, regardless of anything in the form.
func (s *WebServer) createPostSubmit(c *gin.Context) {
	session := s.getWebSession(c)
	if session == nil {
		c.Redirect(http.StatusSeeOther, "/login?next=/create/")
		return
	}

	text := strings.TrimSpace(models.NormalizeText(c.PostForm("text")))
	if text == "" {
		s.renderPostFormError(c, "Text is required", false, nil)
		return
	}

	groupID, err := s.parseGroupField(c)
	if err != nil {
		s.renderPostFormError(c, err.Error(), false, nil)
		return
	}

	imagePath := ""
	if file, err := c.FormFile("image"); err == nil && file != nil {
		imagePath, err = s.saveUploadedImage(c, file)
		if err != nil {
			s.renderPostFormError(c, err.Error(), false, nil)
			return
		}
	}

	post := &models.Post{
		Text:      text,
		AuthorID:  session.UserID,
		GroupID:   groupID,
		ImagePath: imagePath,
	}
	if _, err := s.DB.InsertPost(post); err != nil {
		s.removeUploadedImage(imagePath)
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	// New posts land on the author's profile
	c.Redirect(http.StatusSeeOther, "/profile/"+session.User.Username+"/")
}

// editPostPage displays the edit form. Non-authors are silently sent
// back to the post detail page.
func (s *WebServer) editPostPage(c *gin.Context) {
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

	session := s.getWebSession(c)
	if session == nil || session.UserID != post.AuthorID {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/posts/%d/", post.ID))
		return
	}

	groups, err := s.DB.GetAllGroupsWithCounts()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	data := PostFormPageData{
		TemplateData: s.getBaseTemplateData(c, "Edit Post"),
		Post:         post,
		Groups:       groups,
		IsEdit:       true,
		TextValue:    post.Text,
	}
	if post.GroupID != nil {
		data.GroupID = *post.GroupID
	}

	s.renderTemplate(c, "create_post.html", data)
}

// editPostSubmit updates a post's text, group and image. Only the
// author may edit; anyone else is silently redirected to the detail
// page. CreatedAt and the author never change.
func (s *WebServer) editPostSubmit(c *gin.Context) {
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

	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	session := s.getWebSession(c)
	if session == nil || session.UserID != post.AuthorID {
		c.Redirect(http.StatusSeeOther, detailURL)
		return
	}

	text := strings.TrimSpace(models.NormalizeText(c.PostForm("text")))
	if text == "" {
		s.renderPostFormError(c, "Text is required", true, post)
		return
	}

	groupID, err := s.parseGroupField(c)
	if err != nil {
		s.renderPostFormError(c, err.Error(), true, post)
		return
	}

	imagePath := post.ImagePath
	if file, err := c.FormFile("image"); err == nil && file != nil {
		imagePath, err = s.saveUploadedImage(c, file)
		if err != nil {
			s.renderPostFormError(c, err.Error(), true, post)
			return
		}
	}

	if err := s.DB.UpdatePost(post.ID, text, groupID, imagePath); err != nil {
		if imagePath != post.ImagePath {
			s.removeUploadedImage(imagePath)
		}
		s.renderError(c, http.StatusInternalServerError, "Database Error", err.Error())
		return
	}

	// A replaced image leaves the old file behind
	if imagePath != post.ImagePath {
		s.removeUploadedImage(post.ImagePath)
	}

	c.Redirect(http.StatusSeeOther, detailURL)
}

// renderPostFormError re-renders the post form with an error message
func (s *WebServer) renderPostFormError(c *gin.Context, errorMsg string, isEdit bool, post *models.Post) {
	groups, err := s.DB.GetAllGroupsWithCounts()
	if err != nil {
		groups = nil
	}

	title := "New Post"
	if isEdit {
		title = "Edit Post"
	}

	data := PostFormPageData{
		TemplateData: s.getBaseTemplateData(c, title),
		Post:         post,
		Groups:       groups,
		IsEdit:       isEdit,
		Error:        errorMsg,
		TextValue:    c.PostForm("text"),
	}

	c.Status(http.StatusBadRequest)
	s.renderTemplate(c, "create_post.html", data)
}
