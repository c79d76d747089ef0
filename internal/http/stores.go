package http

import (
	"context"

	"github.com/devops-offer/offer/internal/entities"
)

// Each controller depends on the narrow store interface it needs.
// The repositories under internal/database satisfy them.

// CategoryStore manages categories.
type CategoryStore interface {
	All(ctx context.Context) ([]entities.Category, error)
	GetByRef(ctx context.Context, ref string) (*entities.Category, error)
	GetByID(ctx context.Context, id uint) (*entities.Category, error)
	Create(ctx context.Context, name, description string) (*entities.Category, error)
	Update(ctx context.Context, id uint, name, description string) (*entities.Category, error)
	Delete(ctx context.Context, id uint) error
}

// QuestionStore manages questions.
type QuestionStore interface {
	GetByID(ctx context.Context, id uint) (*entities.Question, error)
	Create(ctx context.Context, title string, categoryID uint) (*entities.Question, error)
	Update(ctx context.Context, id uint, title string, categoryID uint) (*entities.Question, error)
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
}

// AnswerStore manages answers.
type AnswerStore interface {
	GetByID(ctx context.Context, id uint) (*entities.Answer, error)
	Create(ctx context.Context, questionID uint, content string) (*entities.Answer, error)
	Update(ctx context.Context, id uint, content string) (*entities.Answer, error)
	Delete(ctx context.Context, id uint) error
}

// FavoriteStore manages a user's favorites.
type FavoriteStore interface {
	Add(ctx context.Context, userID, questionID uint) (*entities.Favorite, error)
	Remove(ctx context.Context, userID, favoriteID uint) error
	IsFavorite(ctx context.Context, userID, questionID uint) (bool, error)
}

// BrowserSession is the per-browser state kept by the sessions package.
// MarkViewed reports whether a question is viewed for the first time in
// the session; flashes carry one-time messages across a redirect.
type BrowserSession interface {
	MarkViewed(ctx context.Context, questionID uint) bool
	SetFlash(ctx context.Context, msg string)
	PopFlash(ctx context.Context) string
}
