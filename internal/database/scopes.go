package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/devops-offer/offer/internal/pagination"
)

// Paginate applies LIMIT/OFFSET for p.
func Paginate(p pagination.Params) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit())
	}
}

// WithQuestionRelations eager-loads a question's category and answer.
func WithQuestionRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Answer")
}

// WithFavoriteRelations eager-loads the favorited question with its category
// and answer.
func WithFavoriteRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Question").
		Preload("Question.Category").
		Preload("Question.Answer")
}

// TitleContains filters questions by a case-insensitive substring of the
// title. An empty search applies no filter. LIKE wildcards in search match
// literally.
func TitleContains(search string) func(*gorm.DB) *gorm.DB {
	search = strings.TrimSpace(search)
	return func(db *gorm.DB) *gorm.DB {
		if search == "" {
			return db
		}
		pattern := "%" + EscapeLike(strings.ToLower(search)) + "%"
		return db.Where("LOWER(questions.title) LIKE ? ESCAPE '!'", pattern)
	}
}

// EscapeLike escapes LIKE wildcards using '!' as the escape character, which
// every supported dialect accepts without string-literal quirks.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
