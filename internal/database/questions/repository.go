// Package questions provides database operations for questions.
//
// Listings come in two orders: the category page shows newest first
// (ListByCategory), the admin and API listings show ascending id (List).
package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/entities"
	"github.com/devops-offer/offer/internal/pagination"
	"github.com/devops-offer/offer/internal/slugs"
	"github.com/devops-offer/offer/internal/validation"
)

const conflictReason = "Question with this title already exists."

// Column sizes of questions.title and questions.slug.
const (
	maxTitleLength = 512
	maxSlugLength  = 512
)

// Repository handles all question database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new questions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns a page of all questions ordered by ascending id, optionally
// filtered by title.
func (r *Repository) List(ctx context.Context, p pagination.Params, search string) ([]entities.Question, int64, error) {
	return r.list(ctx, nil, p, search, "questions.id ASC")
}

// ListByCategory returns a page of one category's questions, newest first.
func (r *Repository) ListByCategory(ctx context.Context, categoryID uint, p pagination.Params, search string) ([]entities.Question, int64, error) {
	return r.list(ctx, &categoryID, p, search, "questions.id DESC")
}

// The count and the page share one filter so page counts match the rows.
func (r *Repository) list(ctx context.Context, categoryID *uint, p pagination.Params, search, order string) ([]entities.Question, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		db = database.TitleContains(search)(db)
		if categoryID != nil {
			db = db.Where("questions.category_id = ?", *categoryID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Question{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entities.Question
	err := r.db.WithContext(ctx).
		Scopes(filter, database.WithQuestionRelations, database.Paginate(p)).
		Order(order).
		Find(&items).Error
	return items, total, err
}

// GetByID retrieves a question with its category and answer.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Question, error) {
	var question entities.Question
	if err := r.db.WithContext(ctx).Scopes(database.WithQuestionRelations).First(&question, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &question, nil
}

// GetBySlug retrieves a question with its category and answer by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*entities.Question, error) {
	var question entities.Question
	err := r.db.WithContext(ctx).Scopes(database.WithQuestionRelations).
		Where("slug = ?", slug).First(&question).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &question, nil
}

// Create inserts a question into an existing category.
func (r *Repository) Create(ctx context.Context, title string, categoryID uint) (*entities.Question, error) {
	question := &entities.Question{Title: strings.TrimSpace(title), CategoryID: categoryID}
	if err := r.check(ctx, question, 0); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(question).Error; err != nil {
		return nil, database.Translate(err, conflictReason)
	}
	return r.GetByID(ctx, question.ID)
}

// Update changes the title and category of a question.
func (r *Repository) Update(ctx context.Context, id uint, title string, categoryID uint) (*entities.Question, error) {
	var question entities.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, notFound(err)
	}

	question.Title = strings.TrimSpace(title)
	question.CategoryID = categoryID
	if err := r.check(ctx, &question, id); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(&question).Error; err != nil {
		return nil, database.Translate(err, conflictReason)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a question and its answer. Questions that are somebody's
// favorite are kept.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var question entities.Question
		if err := tx.First(&question, id).Error; err != nil {
			return notFound(err)
		}

		var favorites int64
		if err := tx.Model(&entities.Favorite{}).Where("question_id = ?", id).Count(&favorites).Error; err != nil {
			return err
		}
		if favorites > 0 {
			return database.Conflict("Question depends on favorites.")
		}

		if err := tx.Where("question_id = ?", id).Delete(&entities.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
}

// IncrementViews bumps the view counter without touching updated_at.
func (r *Repository) IncrementViews(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entities.Question{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.NotFound("question")
	}
	return nil
}

// check validates the title, the category reference and slug uniqueness.
func (r *Repository) check(ctx context.Context, q *entities.Question, excludeID uint) error {
	errs := validation.Errors{}
	slug := slugs.Make(q.Title)
	switch {
	case q.Title == "":
		errs.Add("title", "This field is required.")
	case utf8.RuneCountInString(q.Title) > maxTitleLength:
		errs.Add("title", fmt.Sprintf("Must be at most %d characters long.", maxTitleLength))
	case slug == "":
		errs.Add("title", "Title must contain letters or digits.")
	case len(slug) > maxSlugLength:
		// Transliteration can make the slug longer than the title.
		errs.Add("title", "Title is too long.")
	}
	if q.CategoryID == 0 {
		errs.Add("category_id", "This field is required.")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	var categories int64
	if err := r.db.WithContext(ctx).Model(&entities.Category{}).Where("id = ?", q.CategoryID).Count(&categories).Error; err != nil {
		return err
	}
	if categories == 0 {
		return database.NotFound("category")
	}

	var taken int64
	query := r.db.WithContext(ctx).Model(&entities.Question{}).Where("slug = ?", slug)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		return database.Conflict(conflictReason)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.NotFound("question")
	}
	return err
}
