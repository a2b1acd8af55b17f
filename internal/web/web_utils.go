// Package web provides the HTTP server and web interface for go-pugblog
package web

import (
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/models"
)

// GetPort returns the listening port from the config
func (s *WebServer) GetPort() int {
	return s.Config.ListenPort
}

// getBaseTemplateData creates a TemplateData struct with common information including user auth
func (s *WebServer) getBaseTemplateData(c *gin.Context, title string) TemplateData {
	// Check registration status (default to true if error)
	registrationEnabled := true
	if enabled, err := s.DB.IsRegistrationEnabled(); err == nil {
		registrationEnabled = enabled
	}

	data := TemplateData{
		Title:               template.HTML(title),
		CurrentTime:         time.Now().Format("2006-01-02 15:04:05"),
		Port:                s.GetPort(),
		AppVersion:          config.AppVersion,
		RegistrationEnabled: registrationEnabled,
	}

	// Add user information if logged in
	if session := s.getWebSession(c); session != nil {
		data.User = session.User
		data.FlashSuccess, data.FlashError = GetAndClearFlash(session.SessionID)
		if userModel, err := s.DB.GetUserByID(session.UserID); err == nil {
			data.IsAdmin = s.isAdminUser(userModel)
		}
	}

	return data
}

// isAdminUser checks if a user has admin permissions (first user is always admin)
func (s *WebServer) isAdminUser(user *models.User) bool {
	if user.ID == 1 {
		return true
	}
	hasAdmin, err := s.DB.UserHasPermission(user.ID, "admin")
	if err != nil {
		return false
	}
	return hasAdmin
}

// templatePath resolves a template name against the configured template dir
func (s *WebServer) templatePath(name string) string {
	return filepath.Join(s.Config.TemplateDir, name)
}

// renderError renders an error page
func (s *WebServer) renderError(c *gin.Context, statusCode int, message string, errstring string) {
	errorData := struct {
		TemplateData
		Error      string
		StatusCode int
	}{
		TemplateData: s.getBaseTemplateData(c, "Error"),
		Error:        message,
		StatusCode:   statusCode,
	}
	log.Printf("[WEB]: Error %d: %s - %s", statusCode, message, errstring)

	// Load template individually to avoid engine setup issues
	tmpl := template.Must(template.ParseFiles(s.templatePath("base.html"), s.templatePath("error.html")))
	c.Header("Content-Type", "text/html")
	c.Status(statusCode)
	err := tmpl.ExecuteTemplate(c.Writer, "base.html", errorData)
	if err != nil {
		log.Printf("Error rendering error template: %v", err)
		c.String(statusCode, "Error: %s - %s", message, errstring)
	}
}

// renderTemplate renders a template with base template data
func (s *WebServer) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	// Load template individually to avoid engine setup issues
	tmpl := template.Must(template.ParseFiles(
		s.templatePath("base.html"),
		s.templatePath("partials.html"),
		s.templatePath(templateName)))
	c.Header("Content-Type", "text/html")
	err := tmpl.ExecuteTemplate(c.Writer, "base.html", data)
	if err != nil {
		log.Printf("Error rendering template %s: %v", templateName, err)
		s.renderError(c, http.StatusInternalServerError, "Template error", err.Error())
	}
}

// parsePageParam reads the page query parameter, defaulting to 1
func parsePageParam(c *gin.Context) int {
	page := 1
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil {
			page = p
		}
	}
	return page
}

// parseIDParam reads a numeric path parameter
func parseIDParam(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
