package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/auth"
)

// layout fills the data shared by every HTML page.
type layout struct {
	categories CategoryStore
	session    BrowserSession
	log        logrus.FieldLogger
}

// page adds the current user, the navigation categories and a pending
// flash message to data.
func (l layout) page(c *gin.Context, title string, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["User"] = auth.CurrentUser(c)

	nav, err := l.categories.All(c.Request.Context())
	if err != nil {
		l.log.WithError(err).Warn("failed to load navigation categories")
	}
	data["NavCategories"] = nav

	if flash := l.session.PopFlash(c.Request.Context()); flash != "" {
		data["Flash"] = flash
	}
	return data
}
