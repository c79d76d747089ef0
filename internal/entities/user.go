package entities

import (
	"time"
)

// User is an account of the knowledge base. Users are never hard-deleted.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex:idx_users_email;size:320;not null" json:"email"`
	Username       string    `gorm:"uniqueIndex:idx_users_username;size:25;not null" json:"username"`
	HashedPassword string    `gorm:"size:1024;not null" json:"-"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser    bool      `gorm:"not null;default:false" json:"is_superuser"`
	IsVerified     bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CanManageContent reports whether the user may mutate categories, questions
// and answers.
func (u *User) CanManageContent() bool {
	return u != nil && u.IsActive && u.IsSuperuser
}

// PasswordResetToken is a single-use credential emailed by the forgot-password
// flow. Only the sha256 of the token is stored.
type PasswordResetToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenHash string     `gorm:"uniqueIndex:idx_password_reset_tokens_hash;size:64;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// IsExpired reports whether the token is past its validity window at now.
func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// RevokedToken records a session token id (jti) invalidated at logout.
// Rows are kept until the token would have expired anyway.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:36" json:"jti"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
