package entities

import (
	"time"

	"gorm.io/gorm"

	"github.com/devops-offer/offer/internal/richtext"
	"github.com/devops-offer/offer/internal/slugs"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex:idx_categories_name;size:255;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex:idx_categories_slug;size:255;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeSave keeps the slug derived from the name.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Slug = slugs.Make(c.Name)
	return nil
}

type Question struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:512;not null" json:"title"`
	Slug       string    `gorm:"uniqueIndex:idx_questions_slug;size:512;not null" json:"slug"`
	CategoryID uint      `gorm:"index;not null" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	Answer     *Answer   `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answer,omitempty"`
	Views      uint      `gorm:"not null;default:0" json:"views"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeSave keeps the slug derived from the title.
func (q *Question) BeforeSave(tx *gorm.DB) error {
	q.Slug = slugs.Make(q.Title)
	return nil
}

// Answer holds the rich-text answer to a question. Content is sanitized
// before it is written; PlainText is the markup-free rendering and is not
// persisted.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"uniqueIndex:idx_answers_question_id;not null" json:"question_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	PlainText  string    `gorm:"-" json:"plain_text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Answer) BeforeSave(tx *gorm.DB) error {
	a.Content = richtext.Sanitize(a.Content)
	return nil
}

func (a *Answer) AfterSave(tx *gorm.DB) error {
	a.PlainText = richtext.PlainText(a.Content)
	return nil
}

func (a *Answer) AfterFind(tx *gorm.DB) error {
	a.PlainText = richtext.PlainText(a.Content)
	return nil
}

// Favorite is a user's bookmark of a question.
type Favorite struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_favorites_user_question;not null" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	QuestionID uint      `gorm:"uniqueIndex:idx_favorites_user_question;index;not null" json:"question_id"`
	Question   *Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:RESTRICT" json:"question,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
