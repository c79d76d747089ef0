package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devops-offer/offer/internal/entities"
)

var ErrNoCredentials = errors.New("no credentials supplied")

// Backend delivers and reads session tokens over one transport. The JSON API
// uses bearer tokens, the HTML UI uses a cookie; both share one JWTStrategy.
type Backend interface {
	Name() string
	// Login issues a token for user and attaches it to the response. A
	// non-nil body is meant to be rendered as the JSON response.
	Login(c *gin.Context, user *entities.User) (gin.H, error)
	// Logout invalidates the credentials of the current request.
	Logout(c *gin.Context) error
	// Identify returns the verified claims of the current request, or
	// ErrNoCredentials when none were supplied.
	Identify(c *gin.Context) (*Claims, error)
}

// BearerBackend reads tokens from the Authorization header.
type BearerBackend struct {
	strategy *JWTStrategy
}

func NewBearerBackend(strategy *JWTStrategy) *BearerBackend {
	return &BearerBackend{strategy: strategy}
}

func (b *BearerBackend) Name() string { return "jwt" }

func (b *BearerBackend) Login(_ *gin.Context, user *entities.User) (gin.H, error) {
	token, _, err := b.strategy.WriteToken(user)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"access_token": token,
		"token_type":   "bearer",
	}, nil
}

// Logout is a no-op: bearer clients discard the token themselves.
func (b *BearerBackend) Logout(*gin.Context) error {
	return nil
}

func (b *BearerBackend) Identify(c *gin.Context) (*Claims, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, ErrNoCredentials
	}
	return b.strategy.ReadToken(c.Request.Context(), token)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CookieBackend keeps the token in an httponly cookie.
type CookieBackend struct {
	strategy *JWTStrategy
	name     string
	secure   bool
}

func NewCookieBackend(strategy *JWTStrategy, cookieName string, secure bool) *CookieBackend {
	return &CookieBackend{
		strategy: strategy,
		name:     cookieName,
		secure:   secure,
	}
}

func (b *CookieBackend) Name() string { return "cookie" }

func (b *CookieBackend) Login(c *gin.Context, user *entities.User) (gin.H, error) {
	token, _, err := b.strategy.WriteToken(user)
	if err != nil {
		return nil, err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(b.name, token, int(b.strategy.Lifetime()/time.Second), "/", "", b.secure, true)
	return nil, nil
}

// Logout revokes the current token and clears the cookie.
func (b *CookieBackend) Logout(c *gin.Context) error {
	var err error
	if token, cerr := c.Cookie(b.name); cerr == nil && token != "" {
		if derr := b.strategy.DestroyToken(c.Request.Context(), token); derr != nil {
			err = fmt.Errorf("failed to revoke token: %w", derr)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(b.name, "", -1, "/", "", b.secure, true)
	return err
}

func (b *CookieBackend) Identify(c *gin.Context) (*Claims, error) {
	token, err := c.Cookie(b.name)
	if err != nil || token == "" {
		return nil, ErrNoCredentials
	}
	return b.strategy.ReadToken(c.Request.Context(), token)
}
