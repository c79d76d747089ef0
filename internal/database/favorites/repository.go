// Package favorites provides database operations for users' favorite
// questions.
//
// # Usage
//
//	repo := favorites.NewRepository(db)
//	items, total, err := repo.List(ctx, userID, pagination.Default())
package favorites

import (
	"context"

	"gorm.io/gorm"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/entities"
	"github.com/devops-offer/offer/internal/pagination"
)

const conflictReason = "Favorite already exists."

// Repository handles all favorites database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favorites repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns a page of the user's favorites, newest first, with the
// question and its category loaded.
func (r *Repository) List(ctx context.Context, userID uint, p pagination.Params) ([]entities.Favorite, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entities.Favorite{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var items []entities.Favorite
	err = r.db.WithContext(ctx).
		Scopes(database.WithFavoriteRelations, database.Paginate(p)).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&items).Error
	return items, total, err
}

// Add favorites a question for the user.
func (r *Repository) Add(ctx context.Context, userID, questionID uint) (*entities.Favorite, error) {
	var questions int64
	if err := r.db.WithContext(ctx).Model(&entities.Question{}).Where("id = ?", questionID).Count(&questions).Error; err != nil {
		return nil, err
	}
	if questions == 0 {
		return nil, database.NotFound("question")
	}

	exists, err := r.IsFavorite(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, database.Conflict(conflictReason)
	}

	favorite := &entities.Favorite{UserID: userID, QuestionID: questionID}
	if err := r.db.WithContext(ctx).Omit("User", "Question").Create(favorite).Error; err != nil {
		return nil, database.Translate(err, conflictReason)
	}
	return favorite, nil
}

// Remove deletes one of the user's favorites. A favorite owned by somebody
// else is reported as not found.
func (r *Repository) Remove(ctx context.Context, userID, favoriteID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", favoriteID, userID).
		Delete(&entities.Favorite{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.NotFound("favorite")
	}
	return nil
}

// IsFavorite reports whether the user has favorited the question.
func (r *Repository) IsFavorite(ctx context.Context, userID, questionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Favorite{}).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Count(&count).Error
	return count > 0, err
}

// FindByQuestion returns the user's favorite for a question.
func (r *Repository) FindByQuestion(ctx context.Context, userID, questionID uint) (*entities.Favorite, error) {
	var favorite entities.Favorite
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&favorite).Error
	if err != nil {
		return nil, database.Translate(err, "")
	}
	return &favorite, nil
}
