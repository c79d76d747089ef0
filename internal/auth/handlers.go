package auth

import (
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/validation"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to fallback.
func sanitizeRedirectPath(path, fallback string) string {
	if isLocalPath(path) {
		return path
	}
	return fallback
}

// loginField returns the submitted login, accepting either a username or an
// email form field.
func loginField(c *gin.Context) string {
	if login := c.PostForm("username"); login != "" {
		return login
	}
	return c.PostForm("email")
}

// AuthController serves the HTML sign-in, sign-up and password reset pages.
// It authenticates through the cookie backend.
type AuthController struct {
	service     *Service
	backend     Backend
	csrf        *CSRFProtector
	rateLimiter *RateLimiter
	templates   *template.Template
	log         logrus.FieldLogger
}

// NewAuthController creates the controller. Templates are loaded from
// templatesPath/auth; without them pages are rendered as JSON.
func NewAuthController(service *Service, backend Backend, csrf *CSRFProtector, rateLimiter *RateLimiter, templatesPath string, log logrus.FieldLogger) *AuthController {
	var tmpl *template.Template
	if templatesPath != "" {
		parsed, err := template.ParseGlob(filepath.Join(templatesPath, "auth", "*.html"))
		if err != nil {
			log.WithError(err).Warn("auth templates not loaded, rendering JSON")
		} else {
			tmpl = parsed
		}
	}

	return &AuthController{
		service:     service,
		backend:     backend,
		csrf:        csrf,
		rateLimiter: rateLimiter,
		templates:   tmpl,
		log:         log,
	}
}

// RegisterRoutes registers the pages on a router group whose middleware
// already identifies the cookie user.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.rateLimiter.Middleware("username"), ac.Login)
	router.GET("/logout", ac.Logout)
	router.POST("/logout", ac.Logout)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.GET("/forgot-password", ac.ForgotPasswordPage)
	router.POST("/forgot-password", ac.ForgotPassword)
	router.GET("/reset-password", ac.ResetPasswordPage)
	router.POST("/reset-password", ac.ResetPassword)
}

// LoginPage renders the login form with a fresh CSRF token.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/profile")
		return
	}
	ac.renderLogin(c, http.StatusOK, gin.H{})
}

// Login verifies the CSRF token, then the credentials.
func (ac *AuthController) Login(c *gin.Context) {
	login := loginField(c)
	next := sanitizeRedirectPath(c.PostForm("next"), "/profile")

	if err := ac.csrf.VerifyRequest(c); err != nil {
		ac.log.WithField("ip", c.ClientIP()).Warn("login rejected: csrf token invalid")
		ac.renderLogin(c, http.StatusBadRequest, gin.H{
			"Username": login,
			"Next":     sanitizeRedirectPath(c.PostForm("next"), ""),
			"Errors":   validation.Field(CSRFFormField, "CSRF token missing or incorrect."),
		})
		return
	}

	ip := c.ClientIP()
	user, err := ac.service.Authenticate(c.Request.Context(), login, c.PostForm("password"))
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) && !errors.Is(err, ErrInactiveUser) {
			ac.log.WithError(err).Error("login failed")
			c.String(http.StatusInternalServerError, "Internal server error")
			return
		}
		if login != "" {
			ac.rateLimiter.RecordFailure(ip, login)
		}
		ac.renderLogin(c, http.StatusBadRequest, gin.H{
			"Username": login,
			"Next":     sanitizeRedirectPath(c.PostForm("next"), ""),
			"Error":    "Invalid email or password.",
		})
		return
	}

	ac.rateLimiter.RecordSuccess(ip, login)
	if _, err := ac.backend.Login(c, user); err != nil {
		ac.log.WithError(err).Error("failed to issue session token")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	ac.log.WithField("user_id", user.ID).Info("user logged in")
	c.Redirect(http.StatusFound, next)
}

// Logout revokes the session cookie.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.backend.Logout(c); err != nil {
		ac.log.WithError(err).Error("logout failed")
	}
	c.Redirect(http.StatusFound, "/")
}

// RegisterPage renders the sign-up form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/profile")
		return
	}
	ac.renderTemplate(c, http.StatusOK, "register.html", gin.H{"Title": "Register"})
}

// Register creates the account and signs the new user in.
func (ac *AuthController) Register(c *gin.Context) {
	in := RegisterInput{
		Username:        c.PostForm("username"),
		Email:           c.PostForm("email"),
		Password:        c.PostForm("password"),
		PasswordConfirm: c.PostForm("password_confirm"),
	}

	user, err := ac.service.Register(c.Request.Context(), in)
	if err != nil {
		if verr, ok := validation.As(err); ok {
			ac.renderTemplate(c, http.StatusBadRequest, "register.html", gin.H{
				"Title":    "Register",
				"Username": in.Username,
				"Email":    in.Email,
				"Errors":   verr,
			})
			return
		}
		ac.log.WithError(err).Error("registration failed")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	if _, err := ac.backend.Login(c, user); err != nil {
		ac.log.WithError(err).Error("failed to issue session token")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Redirect(http.StatusFound, "/profile")
}

// ForgotPasswordPage renders the reset request form.
func (ac *AuthController) ForgotPasswordPage(c *gin.Context) {
	ac.renderTemplate(c, http.StatusOK, "forgot_password.html", gin.H{"Title": "Forgot password"})
}

// ForgotPassword always reports success for well-formed emails.
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	email := c.PostForm("email")
	if err := ac.service.ForgotPassword(c.Request.Context(), email); err != nil {
		if verr, ok := validation.As(err); ok {
			ac.renderTemplate(c, http.StatusBadRequest, "forgot_password.html", gin.H{
				"Title":  "Forgot password",
				"Email":  email,
				"Errors": verr,
			})
			return
		}
		ac.log.WithError(err).Error("forgot password failed")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	ac.renderTemplate(c, http.StatusOK, "forgot_password.html", gin.H{
		"Title": "Forgot password",
		"Sent":  true,
	})
}

// ResetPasswordPage renders the new password form for a token from the email.
func (ac *AuthController) ResetPasswordPage(c *gin.Context) {
	ac.renderTemplate(c, http.StatusOK, "reset_password.html", gin.H{
		"Title": "Reset password",
		"Token": c.Query("token"),
	})
}

// ResetPassword consumes the token and sends the user to the login page.
func (ac *AuthController) ResetPassword(c *gin.Context) {
	token := c.PostForm("token")
	err := ac.service.ResetPassword(c.Request.Context(), token, c.PostForm("password"), c.PostForm("password_confirm"))
	if err == nil {
		c.Redirect(http.StatusFound, "/login?reset=1")
		return
	}

	data := gin.H{"Title": "Reset password", "Token": token}
	if verr, ok := validation.As(err); ok {
		data["Errors"] = verr
	} else if msg := ResetErrorMessage(err); msg != "" {
		data["Error"] = msg
	} else {
		ac.log.WithError(err).Error("password reset failed")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	ac.renderTemplate(c, http.StatusBadRequest, "reset_password.html", data)
}

// ResetErrorMessage describes a reset token failure, or returns "" for
// errors that are not about the token.
func ResetErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrResetTokenInvalid):
		return "The reset link is invalid."
	case errors.Is(err, ErrResetTokenUsed):
		return "The reset link has already been used."
	case errors.Is(err, ErrResetTokenExpired):
		return "The reset link has expired."
	case errors.Is(err, database.ErrNotFound):
		return "The reset link is invalid."
	default:
		return ""
	}
}

func (ac *AuthController) renderLogin(c *gin.Context, status int, data gin.H) {
	token, err := ac.csrf.IssueCookie(c)
	if err != nil {
		ac.log.WithError(err).Error("failed to issue csrf token")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	data["Title"] = "Login"
	data["CSRFToken"] = token
	if _, ok := data["Next"]; !ok {
		data["Next"] = sanitizeRedirectPath(c.Query("next"), "")
	}
	if c.Query("reset") != "" {
		data["Reset"] = true
	}
	ac.renderTemplate(c, status, "login.html", data)
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *AuthController) renderTemplate(c *gin.Context, status int, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(status, data)
		return
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		ac.log.WithError(err).WithField("template", name).Error("template error")
	}
}
