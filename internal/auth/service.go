package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/devops-offer/offer/internal/config"
	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/database/tokens"
	"github.com/devops-offer/offer/internal/entities"
	"github.com/devops-offer/offer/internal/mail"
	"github.com/devops-offer/offer/internal/validation"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 25
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrResetTokenInvalid  = errors.New("reset token is invalid")
	ErrResetTokenUsed     = errors.New("reset token has already been used")
	ErrResetTokenExpired  = errors.New("reset token has expired")
)

// UserStore is the user persistence the service needs.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	Save(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByLogin(ctx context.Context, login string) (*entities.User, error)
	Taken(ctx context.Context, username, email string, excludeID uint) (bool, bool, error)
}

// ResetTokenStore persists password reset tokens.
type ResetTokenStore interface {
	CreateResetToken(ctx context.Context, userID uint, tokenHash string, expiresAt time.Time) (*entities.PasswordResetToken, error)
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, apply func(tx *gorm.DB, userID uint) error) error
}

// Mailer dispatches outgoing email, either directly or through the task queue.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

// ProfileInput is a profile edit. Password fields are optional; when
// NewPassword is set CurrentPassword must match.
type ProfileInput struct {
	Username           string
	Email              string
	CurrentPassword    string
	NewPassword        string
	NewPasswordConfirm string
}

// Service handles accounts and credentials.
type Service struct {
	users    UserStore
	tokens   ResetTokenStore
	mailer   Mailer
	config   config.Auth
	baseURL  string
	validate *validator.Validate
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a new authentication service.
func NewService(users UserStore, resetTokens ResetTokenStore, mailer Mailer, cfg config.Auth, baseURL string, log logrus.FieldLogger) *Service {
	return &Service{
		users:    users,
		tokens:   resetTokens,
		mailer:   mailer,
		config:   cfg,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

// Register creates an active, non-superuser account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entities.User, error) {
	return s.register(ctx, in, false)
}

func (s *Service) register(ctx context.Context, in RegisterInput, superuser bool) (*entities.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	errs := validation.Errors{}
	s.checkUsername(errs, in.Username)
	s.checkEmail(errs, in.Email)
	checkNewPassword(errs, "password", "password_confirm", in.Password, in.PasswordConfirm)
	if err := s.checkTaken(ctx, errs, in.Username, in.Email, 0); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    superuser,
		IsVerified:     superuser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, s.conflictError(ctx, err, in.Username, in.Email, 0)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate checks a login (username or email) and password. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*entities.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := CheckPassword(password, user.HashedPassword); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id uint) (*entities.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile changes username, email and optionally the password.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		in.Username = user.Username
	}
	if in.Email == "" {
		in.Email = user.Email
	}

	errs := validation.Errors{}
	s.checkUsername(errs, in.Username)
	s.checkEmail(errs, in.Email)
	if err := s.checkTaken(ctx, errs, in.Username, in.Email, user.ID); err != nil {
		return nil, err
	}

	var newHash string
	if in.NewPassword != "" || in.NewPasswordConfirm != "" {
		if CheckPassword(in.CurrentPassword, user.HashedPassword) != nil {
			errs.Add("current_password", "Current password is incorrect.")
		} else if in.NewPassword == in.CurrentPassword {
			errs.Add("new_password", "New password must differ from the current one.")
		}
		checkNewPassword(errs, "new_password", "new_password_confirm", in.NewPassword, in.NewPasswordConfirm)
		if len(errs) == 0 {
			newHash, err = HashPassword(in.NewPassword, s.config.BcryptCost)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password: %w", err)
			}
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Email = in.Email
	if newHash != "" {
		user.HashedPassword = newHash
	}
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, s.conflictError(ctx, err, user.Username, user.Email, user.ID)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ForgotPassword emails a reset link to the account with this address.
// Unknown and inactive accounts are ignored without error so the endpoint
// does not reveal which emails are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return validation.Field("email", "Enter a valid email address.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.log.WithField("email", email).Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	plaintext, hash, err := GenerateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	expiresAt := s.now().Add(s.config.ResetTokenLifetime)
	if _, err := s.tokens.CreateResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "Password reset",
		Body: fmt.Sprintf(
			"Hello %s,\n\nTo choose a new password open the link below:\n\n%s\n\nThe link is valid for %s and can be used once.\n",
			user.Username, s.resetLink(plaintext), s.config.ResetTokenLifetime),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using a reset token. A token works once.
func (s *Service) ResetPassword(ctx context.Context, token, password, passwordConfirm string) error {
	errs := validation.Errors{}
	checkNewPassword(errs, "password", "password_confirm", password, passwordConfirm)
	if err := errs.Err(); err != nil {
		return err
	}
	if token == "" {
		return ErrResetTokenInvalid
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.tokens.ConsumeResetToken(ctx, HashToken(token), s.now(), func(tx *gorm.DB, userID uint) error {
		result := tx.Model(&entities.User{}).Where("id = ?", userID).Update("hashed_password", hash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.NotFound("user")
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tokens.ErrTokenUsed):
		return ErrResetTokenUsed
	case errors.Is(err, tokens.ErrTokenExpired):
		return ErrResetTokenExpired
	case errors.Is(err, database.ErrNotFound):
		return ErrResetTokenInvalid
	default:
		return err
	}
}

// CreateSuperuser creates an active, verified superuser.
func (s *Service) CreateSuperuser(ctx context.Context, username, email, password string) (*entities.User, error) {
	return s.register(ctx, RegisterInput{
		Username:        username,
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	}, true)
}

func (s *Service) resetLink(token string) string {
	return s.baseURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *Service) checkUsername(errs validation.Errors, username string) {
	n := utf8.RuneCountInString(username)
	switch {
	case n == 0:
		errs.Add("username", "This field is required.")
	case n < MinUsernameLength || n > MaxUsernameLength:
		errs.Add("username", fmt.Sprintf("Username must be %d to %d characters long.", MinUsernameLength, MaxUsernameLength))
	}
}

func (s *Service) checkEmail(errs validation.Errors, email string) {
	if email == "" {
		errs.Add("email", "This field is required.")
		return
	}
	if err := s.validate.Var(email, "email,max=320"); err != nil {
		errs.Add("email", "Enter a valid email address.")
	}
}

func (s *Service) checkTaken(ctx context.Context, errs validation.Errors, username, email string, excludeID uint) error {
	usernameTaken, emailTaken, err := s.users.Taken(ctx, username, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if usernameTaken {
		errs.Add("username", "A user with that username already exists.")
	}
	if emailTaken {
		errs.Add("email", "A user with that email already exists.")
	}
	return nil
}

// conflictError names the field behind a unique-constraint violation that
// slipped past checkTaken, e.g. a concurrent registration.
func (s *Service) conflictError(ctx context.Context, cause error, username, email string, excludeID uint) error {
	errs := validation.Errors{}
	if err := s.checkTaken(ctx, errs, username, email, excludeID); err != nil {
		return err
	}
	if len(errs) == 0 {
		errs.Add(validation.NonField, database.Reason(cause))
	}
	return errs
}

func checkNewPassword(errs validation.Errors, field, confirmField, password, confirm string) {
	if password == "" {
		errs.Add(field, "This field is required.")
		return
	}
	if err := ValidatePassword(password); err != nil {
		errs.Add(field, passwordMessage(err))
	}
	if password != confirm {
		errs.Add(confirmField, "Passwords must match.")
	}
}

func passwordMessage(err error) string {
	switch {
	case errors.Is(err, ErrPasswordTooShort):
		return fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength)
	case errors.Is(err, ErrPasswordTooLong):
		return fmt.Sprintf("Password must be at most %d bytes long.", MaxPasswordLength)
	default:
		return "Password must contain an uppercase letter, a lowercase letter, a digit and a special character."
	}
}
