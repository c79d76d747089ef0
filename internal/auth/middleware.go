package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser     = "auth_user"
	ContextKeyAuthType = "auth_type"
)

// UserLookup loads the user named by a token.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*entities.User, error)
}

// Middleware identifies the user of a route group through one Backend.
type Middleware struct {
	backend Backend
	users   UserLookup
	log     logrus.FieldLogger
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(backend Backend, users UserLookup, log logrus.FieldLogger) *Middleware {
	return &Middleware{
		backend: backend,
		users:   users,
		log:     log,
	}
}

// Backend returns the backend the middleware identifies users with.
func (m *Middleware) Backend() Backend {
	return m.backend
}

// Handler identifies the user if credentials are present. It never rejects
// a request; use RequireActive or RequireSuperuser for that.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := m.identify(c); user != nil {
			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyAuthType, m.backend.Name())
		}
		c.Next()
	}
}

func (m *Middleware) identify(c *gin.Context) *entities.User {
	claims, err := m.backend.Identify(c)
	if err != nil {
		if !errors.Is(err, ErrNoCredentials) {
			m.log.WithError(err).WithField("backend", m.backend.Name()).Debug("rejected credentials")
		}
		return nil
	}

	id, err := claims.UserID()
	if err != nil {
		return nil
	}
	user, err := m.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			m.log.WithError(err).Error("failed to load authenticated user")
		}
		return nil
	}
	return user
}

// RequireActive rejects anonymous requests and inactive users.
func (m *Middleware) RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsActive {
			m.unauthenticated(c)
			return
		}
		c.Next()
	}
}

// RequireSuperuser rejects everyone but active superusers. Signed-in users
// get 403 on the API and are sent home in the UI.
func (m *Middleware) RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsActive {
			m.unauthenticated(c)
			return
		}
		if !user.CanManageContent() {
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "insufficient permissions",
				})
			} else {
				c.Redirect(http.StatusFound, "/")
				c.Abort()
			}
			return
		}
		c.Next()
	}
}

func (m *Middleware) unauthenticated(c *gin.Context) {
	if isAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
		})
		return
	}
	c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
	c.Abort()
}

// LoginURL builds the login redirect for next.
func LoginURL(next string) string {
	return "/login?next=" + url.QueryEscape(next)
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return c.GetHeader("Authorization") != ""
}

// CurrentUser returns the identified user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID returns the identified user's id, or 0.
func CurrentUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
