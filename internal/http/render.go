package http

import (
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Renderer executes the page templates. Without templates the page data is
// written as JSON, which keeps the UI routes usable in tests and headless
// deployments.
type Renderer struct {
	templates *template.Template
	log       logrus.FieldLogger
}

// NewRenderer loads templatesPath/*.html.
func NewRenderer(templatesPath string, log logrus.FieldLogger) *Renderer {
	r := &Renderer{log: log}
	if templatesPath == "" {
		return r
	}

	funcMap := template.FuncMap{
		"add":      func(a, b int) int { return a + b },
		"subtract": func(a, b int) int { return a - b },
		// Answer content is sanitized with bluemonday before it is stored.
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseGlob(filepath.Join(templatesPath, "*.html"))
	if err != nil {
		log.WithError(err).Warn("page templates not loaded, rendering JSON")
		return r
	}
	r.templates = tmpl
	return r
}

// HTML renders the named template, or data as JSON when templates are absent.
func (r *Renderer) HTML(c *gin.Context, status int, name string, data gin.H) {
	if r.templates == nil {
		c.JSON(status, data)
		return
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := r.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		r.log.WithError(err).WithField("template", name).Error("template error")
	}
}

// Error renders the error page with a message.
func (r *Renderer) Error(c *gin.Context, status int, message string) {
	r.HTML(c, status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}
