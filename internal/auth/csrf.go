package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFFormField  = "csrf_token"
	CSRFMaxAge     = time.Hour
)

var ErrCSRF = errors.New("CSRF token missing or incorrect")

// csrfPayload is what the login form token carries.
type csrfPayload struct {
	Addr     string `json:"addr"`
	IssuedAt int64  `json:"issued_at"`
}

// CSRFProtector issues and verifies the login form token. The token is bound
// to the client address and is valid for one hour. It travels twice: in the
// csrftoken cookie and in the form, and both copies must match.
type CSRFProtector struct {
	codec  *securecookie.SecureCookie
	secure bool
	now    func() time.Time
}

// NewCSRFProtector creates a protector signing with secret.
func NewCSRFProtector(secret []byte, secure bool) *CSRFProtector {
	codec := securecookie.New(secret, nil).
		SetSerializer(securecookie.JSONEncoder{}).
		MaxAge(0)

	return &CSRFProtector{
		codec:  codec,
		secure: secure,
		now:    time.Now,
	}
}

// Issue creates a token for addr.
func (p *CSRFProtector) Issue(addr string) (string, error) {
	token, err := p.codec.Encode(CSRFCookieName, csrfPayload{
		Addr:     addr,
		IssuedAt: p.now().Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode csrf token: %w", err)
	}
	return token, nil
}

// Verify checks a submitted token against the cookie copy and the client
// address.
func (p *CSRFProtector) Verify(cookieToken, submitted, addr string) error {
	if cookieToken == "" || submitted == "" || cookieToken != submitted {
		return ErrCSRF
	}

	var payload csrfPayload
	if err := p.codec.Decode(CSRFCookieName, submitted, &payload); err != nil {
		return ErrCSRF
	}

	age := p.now().Sub(time.Unix(payload.IssuedAt, 0))
	if age < 0 || age > CSRFMaxAge {
		return ErrCSRF
	}
	if payload.Addr != addr {
		return ErrCSRF
	}
	return nil
}

// IssueCookie issues a token for the request, sets the csrftoken cookie and
// returns the token for embedding in the form.
func (p *CSRFProtector) IssueCookie(c *gin.Context) (string, error) {
	token, err := p.Issue(c.ClientIP())
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CSRFCookieName, token, int(CSRFMaxAge/time.Second), "/", "", p.secure, true)
	return token, nil
}

// VerifyRequest checks the csrf_token form field against the cookie.
func (p *CSRFProtector) VerifyRequest(c *gin.Context) error {
	cookieToken, _ := c.Cookie(CSRFCookieName)
	return p.Verify(cookieToken, c.PostForm(CSRFFormField), c.ClientIP())
}
