package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/auth"
)

// Error codes returned by the JSON auth endpoints.
const (
	codeBadCredentials = "LOGIN_BAD_CREDENTIALS"
	codeBadResetToken  = "RESET_PASSWORD_BAD_TOKEN"
)

type registerRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm"`
}

type updateMeRequest struct {
	Username           string `json:"username"`
	Email              string `json:"email"`
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// confirmOr returns confirm, or password when the client sent no
// confirmation. API clients are not required to repeat the password.
func confirmOr(confirm, password string) string {
	if confirm == "" {
		return password
	}
	return confirm
}

// APIAuthController serves registration, bearer login and account endpoints.
type APIAuthController struct {
	service *auth.Service
	backend auth.Backend
	limiter *auth.RateLimiter
	log     logrus.FieldLogger
}

func NewAPIAuthController(service *auth.Service, backend auth.Backend, limiter *auth.RateLimiter, log logrus.FieldLogger) *APIAuthController {
	return &APIAuthController{service: service, backend: backend, limiter: limiter, log: log}
}

// Register creates an account.
// POST /api/auth/register
func (ac *APIAuthController) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ac.service.Register(c.Request.Context(), auth.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: confirmOr(req.PasswordConfirm, req.Password),
	})
	if err != nil {
		respondError(c, ac.log, err, "register")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login exchanges form credentials for a bearer token.
// POST /api/auth/jwt/login
func (ac *APIAuthController) Login(c *gin.Context) {
	login := c.PostForm("username")
	ip := c.ClientIP()

	user, err := ac.service.Authenticate(c.Request.Context(), login, c.PostForm("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrInactiveUser) {
			if login != "" {
				ac.limiter.RecordFailure(ip, login)
			}
			respondBadRequest(c, codeBadCredentials)
			return
		}
		respondInternalError(c, ac.log, err, "login")
		return
	}

	ac.limiter.RecordSuccess(ip, login)
	body, err := ac.backend.Login(c, user)
	if err != nil {
		respondInternalError(c, ac.log, err, "issue token")
		return
	}
	c.JSON(http.StatusOK, body)
}

// Logout ends the session on the server side, if the backend keeps any.
// POST /api/auth/jwt/logout
func (ac *APIAuthController) Logout(c *gin.Context) {
	if err := ac.backend.Logout(c); err != nil {
		respondInternalError(c, ac.log, err, "logout")
		return
	}
	c.Status(http.StatusNoContent)
}

// ForgotPassword emails a reset link. The response does not reveal whether
// the address is registered.
// POST /api/auth/forgot-password
func (ac *APIAuthController) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ac.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, ac.log, err, "forgot password")
		return
	}
	c.Status(http.StatusAccepted)
}

// ResetPassword sets a new password with a token from the reset email.
// POST /api/auth/reset-password
func (ac *APIAuthController) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := ac.service.ResetPassword(c.Request.Context(), req.Token, req.Password, confirmOr(req.PasswordConfirm, req.Password))
	if err != nil {
		if msg := auth.ResetErrorMessage(err); msg != "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: codeBadResetToken, Details: msg})
			return
		}
		respondError(c, ac.log, err, "reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// Me returns the authenticated user.
// GET /api/users/me
func (ac *APIAuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, auth.CurrentUser(c))
}

// UpdateMe edits the authenticated user's profile.
// PATCH /api/users/me
func (ac *APIAuthController) UpdateMe(c *gin.Context) {
	var req updateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ac.service.UpdateProfile(c.Request.Context(), auth.CurrentUserID(c), auth.ProfileInput{
		Username:           req.Username,
		Email:              req.Email,
		CurrentPassword:    req.CurrentPassword,
		NewPassword:        req.NewPassword,
		NewPasswordConfirm: confirmOr(req.NewPasswordConfirm, req.NewPassword),
	})
	if err != nil {
		respondError(c, ac.log, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, user)
}
