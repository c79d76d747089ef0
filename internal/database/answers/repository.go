// Package answers provides database operations for question answers.
// A question has at most one answer; the unique index on question_id backs
// that rule.
package answers

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/entities"
	"github.com/devops-offer/offer/internal/pagination"
	"github.com/devops-offer/offer/internal/richtext"
	"github.com/devops-offer/offer/internal/validation"
)

const conflictReason = "Question already has an answer."

// Repository handles all answer database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new answers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns a page of answers ordered by ascending id.
func (r *Repository) List(ctx context.Context, p pagination.Params) ([]entities.Answer, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Answer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entities.Answer
	err := r.db.WithContext(ctx).
		Scopes(database.Paginate(p)).
		Order("id ASC").
		Find(&items).Error
	return items, total, err
}

// GetByID retrieves an answer by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Answer, error) {
	var answer entities.Answer
	if err := r.db.WithContext(ctx).First(&answer, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &answer, nil
}

// GetByQuestionID retrieves the answer of a question.
func (r *Repository) GetByQuestionID(ctx context.Context, questionID uint) (*entities.Answer, error) {
	var answer entities.Answer
	if err := r.db.WithContext(ctx).Where("question_id = ?", questionID).First(&answer).Error; err != nil {
		return nil, notFound(err)
	}
	return &answer, nil
}

// Create attaches an answer to a question that has none yet.
func (r *Repository) Create(ctx context.Context, questionID uint, content string) (*entities.Answer, error) {
	if err := validate(questionID, content); err != nil {
		return nil, err
	}

	var questions int64
	if err := r.db.WithContext(ctx).Model(&entities.Question{}).Where("id = ?", questionID).Count(&questions).Error; err != nil {
		return nil, err
	}
	if questions == 0 {
		return nil, database.NotFound("question")
	}

	var existing int64
	if err := r.db.WithContext(ctx).Model(&entities.Answer{}).Where("question_id = ?", questionID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, database.Conflict(conflictReason)
	}

	answer := &entities.Answer{QuestionID: questionID, Content: content}
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		return nil, database.Translate(err, conflictReason)
	}
	return answer, nil
}

// Update replaces the content of an answer.
func (r *Repository) Update(ctx context.Context, id uint, content string) (*entities.Answer, error) {
	answer, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validate(answer.QuestionID, content); err != nil {
		return nil, err
	}

	answer.Content = content
	if err := r.db.WithContext(ctx).Save(answer).Error; err != nil {
		return nil, database.Translate(err, conflictReason)
	}
	return answer, nil
}

// Delete removes an answer.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Answer{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.NotFound("answer")
	}
	return nil
}

func validate(questionID uint, content string) error {
	errs := validation.Errors{}
	if questionID == 0 {
		errs.Add("question_id", "This field is required.")
	}
	// Markup that sanitizes away counts as empty.
	if richtext.PlainText(richtext.Sanitize(content)) == "" {
		errs.Add("content", "This field is required.")
	}
	return errs.Err()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.NotFound("answer")
	}
	return err
}
