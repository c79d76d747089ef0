// Package listing serves the paginated, searchable views of the catalog:
// categories, the questions of a category, all questions, answers and a
// user's favorites.
package listing

import (
	"context"

	"github.com/devops-offer/offer/internal/entities"
	"github.com/devops-offer/offer/internal/pagination"
)

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// NewPage wraps a repository result.
func NewPage[T any](items []T, total int64, p pagination.Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := pagination.TotalPages(total, p.PageSize)
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
		HasMore:    p.Page < totalPages,
	}
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// PrevPage and NextPage are for template links.
func (p Page[T]) PrevPage() int { return p.Page - 1 }
func (p Page[T]) NextPage() int { return p.Page + 1 }

// Pages lists page numbers 1..TotalPages.
func (p Page[T]) Pages() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

type CategoryStore interface {
	List(ctx context.Context, p pagination.Params) ([]entities.Category, int64, error)
	GetByRef(ctx context.Context, ref string) (*entities.Category, error)
}

type QuestionStore interface {
	List(ctx context.Context, p pagination.Params, search string) ([]entities.Question, int64, error)
	ListByCategory(ctx context.Context, categoryID uint, p pagination.Params, search string) ([]entities.Question, int64, error)
}

type AnswerStore interface {
	List(ctx context.Context, p pagination.Params) ([]entities.Answer, int64, error)
}

type FavoriteStore interface {
	List(ctx context.Context, userID uint, p pagination.Params) ([]entities.Favorite, int64, error)
}

// Service composes the stores into page-shaped results.
type Service struct {
	categories CategoryStore
	questions  QuestionStore
	answers    AnswerStore
	favorites  FavoriteStore
}

func NewService(categories CategoryStore, questions QuestionStore, answers AnswerStore, favorites FavoriteStore) *Service {
	return &Service{
		categories: categories,
		questions:  questions,
		answers:    answers,
		favorites:  favorites,
	}
}

// ListCategories returns categories by ascending id.
func (s *Service) ListCategories(ctx context.Context, p pagination.Params) (Page[entities.Category], error) {
	items, total, err := s.categories.List(ctx, p)
	if err != nil {
		return Page[entities.Category]{}, err
	}
	return NewPage(items, total, p), nil
}

// ListQuestionsByCategory resolves the category by id or slug and returns its
// questions, newest first.
func (s *Service) ListQuestionsByCategory(ctx context.Context, ref string, p pagination.Params, search string) (*entities.Category, Page[entities.Question], error) {
	category, err := s.categories.GetByRef(ctx, ref)
	if err != nil {
		return nil, Page[entities.Question]{}, err
	}

	items, total, err := s.questions.ListByCategory(ctx, category.ID, p, search)
	if err != nil {
		return nil, Page[entities.Question]{}, err
	}
	return category, NewPage(items, total, p), nil
}

// ListQuestions returns all questions by ascending id.
func (s *Service) ListQuestions(ctx context.Context, p pagination.Params, search string) (Page[entities.Question], error) {
	items, total, err := s.questions.List(ctx, p, search)
	if err != nil {
		return Page[entities.Question]{}, err
	}
	return NewPage(items, total, p), nil
}

// ListAnswers returns answers by ascending id.
func (s *Service) ListAnswers(ctx context.Context, p pagination.Params) (Page[entities.Answer], error) {
	items, total, err := s.answers.List(ctx, p)
	if err != nil {
		return Page[entities.Answer]{}, err
	}
	return NewPage(items, total, p), nil
}

// ListFavorites returns the user's favorites, newest first.
func (s *Service) ListFavorites(ctx context.Context, userID uint, p pagination.Params) (Page[entities.Favorite], error) {
	items, total, err := s.favorites.List(ctx, userID, p)
	if err != nil {
		return Page[entities.Favorite]{}, err
	}
	return NewPage(items, total, p), nil
}
