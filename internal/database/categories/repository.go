// Package categories provides database operations for question categories.
//
// # Usage
//
//	repo := categories.NewRepository(db)
//	items, total, err := repo.List(ctx, pagination.Default())
package categories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/entities"
	"github.com/devops-offer/offer/internal/pagination"
	"github.com/devops-offer/offer/internal/slugs"
	"github.com/devops-offer/offer/internal/validation"
)

const conflictReason = "Category with this name or slug already exists."

// Column sizes of categories.name and categories.slug.
const (
	maxNameLength = 255
	maxSlugLength = 255
)

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns one page of categories ordered by ascending id, plus the total.
func (r *Repository) List(ctx context.Context, p pagination.Params) ([]entities.Category, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entities.Category{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entities.Category
	err := r.db.WithContext(ctx).
		Scopes(database.Paginate(p)).
		Order("id ASC").
		Find(&items).Error
	return items, total, err
}

// All returns every category ordered by name, for pickers in the admin UI.
func (r *Repository) All(ctx context.Context) ([]entities.Category, error) {
	var items []entities.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

// GetByID retrieves a category by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Category, error) {
	var category entities.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// GetBySlug retrieves a category by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*entities.Category, error) {
	var category entities.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

// GetByRef resolves a numeric id or a slug.
func (r *Repository) GetByRef(ctx context.Context, ref string) (*entities.Category, error) {
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		return r.GetByID(ctx, uint(id))
	}
	return r.GetBySlug(ctx, ref)
}

// Create inserts a category. The slug is derived from the name.
func (r *Repository) Create(ctx context.Context, name, description string) (*entities.Category, error) {
	category := &entities.Category{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	if err := validate(category.Name); err != nil {
		return nil, err
	}

	taken, err := r.taken(ctx, category.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, database.Conflict(conflictReason)
	}

	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, database.Translate(err, conflictReason)
	}
	return category, nil
}

// Update renames a category and replaces its description.
func (r *Repository) Update(ctx context.Context, id uint, name, description string) (*entities.Category, error) {
	category, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = strings.TrimSpace(name)
	category.Description = strings.TrimSpace(description)
	if err := validate(category.Name); err != nil {
		return nil, err
	}

	taken, err := r.taken(ctx, category.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, database.Conflict(conflictReason)
	}

	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, database.Translate(err, conflictReason)
	}
	return category, nil
}

// Delete removes a category that owns no questions.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category entities.Category
		if err := tx.First(&category, id).Error; err != nil {
			return notFound(err)
		}

		var questions int64
		if err := tx.Model(&entities.Question{}).Where("category_id = ?", id).Count(&questions).Error; err != nil {
			return err
		}
		if questions > 0 {
			return database.Conflict("Category has questions.")
		}

		return tx.Delete(&category).Error
	})
}

func (r *Repository) taken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entities.Category{}).
		Where("name = ? OR slug = ?", name, slugs.Make(name))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func validate(name string) error {
	switch {
	case name == "":
		return validation.Field("name", "This field is required.")
	case utf8.RuneCountInString(name) > maxNameLength:
		return validation.Field("name", fmt.Sprintf("Must be at most %d characters long.", maxNameLength))
	}
	switch slug := slugs.Make(name); {
	case slug == "":
		return validation.Field("name", "Name must contain letters or digits.")
	case len(slug) > maxSlugLength:
		return validation.Field("name", "Name is too long.")
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.NotFound("category")
	}
	return err
}
