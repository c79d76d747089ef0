// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByLogin(ctx, "alice@x.com")
package users

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/entities"
)

const conflictReason = "A user with this username or email already exists."

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user. Username or email collisions become ErrConflict.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return database.Translate(err, conflictReason)
	}
	return nil
}

// Save writes all fields of an existing user.
func (r *Repository) Save(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return database.Translate(err, conflictReason)
	}
	return nil
}

// SetPassword replaces the stored password hash.
func (r *Repository) SetPassword(ctx context.Context, id uint, hash string) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Update("hashed_password", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.NotFound("user")
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByLogin accepts either an email address or a username.
func (r *Repository) GetByLogin(ctx context.Context, login string) (*entities.User, error) {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		return r.GetByEmail(ctx, login)
	}
	return r.GetByUsername(ctx, login)
}

// Taken reports which of username and email already belong to another user.
// excludeID skips the user being edited.
func (r *Repository) Taken(ctx context.Context, username, email string, excludeID uint) (usernameTaken, emailTaken bool, err error) {
	count := func(column, value string) (bool, error) {
		var n int64
		query := r.db.WithContext(ctx).Model(&entities.User{}).Where(column+" = ?", value)
		if excludeID > 0 {
			query = query.Where("id <> ?", excludeID)
		}
		if err := query.Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	}

	if usernameTaken, err = count("username", username); err != nil {
		return false, false, err
	}
	if emailTaken, err = count("LOWER(email)", strings.ToLower(email)); err != nil {
		return false, false, err
	}
	return usernameTaken, emailTaken, nil
}

// CountSuperusers returns how many superuser accounts exist.
func (r *Repository) CountSuperusers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Where("is_superuser = ?", true).Count(&n).Error
	return n, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.NotFound("user")
	}
	return err
}
