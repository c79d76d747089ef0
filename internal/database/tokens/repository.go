// Package tokens stores password reset tokens and revoked session tokens.
//
// Repository satisfies auth.RevocationStore, so it is the default place where
// cookie logouts are remembered when no redis is configured.
//
// Expiry timestamps are written and compared in UTC; sqlite compares them as
// text.
package tokens

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/entities"
)

var (
	ErrTokenUsed    = errors.New("reset token already used")
	ErrTokenExpired = errors.New("reset token expired")
)

// Repository handles reset and revoked token operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tokens repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateResetToken stores a reset token hash for a user.
func (r *Repository) CreateResetToken(ctx context.Context, userID uint, tokenHash string, expiresAt time.Time) (*entities.PasswordResetToken, error) {
	token := &entities.PasswordResetToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Omit("User").Create(token).Error; err != nil {
		return nil, database.Translate(err, "reset token collision")
	}
	return token, nil
}

// ConsumeResetToken marks the token identified by tokenHash as used and runs
// apply in the same transaction. The token can be consumed only once; when
// apply fails the token stays unused.
func (r *Repository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, apply func(tx *gorm.DB, userID uint) error) error {
	now = now.UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var token entities.PasswordResetToken
		if err := tx.Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return database.NotFound("reset token")
			}
			return err
		}
		if token.UsedAt != nil {
			return ErrTokenUsed
		}
		if token.IsExpired(now) {
			return ErrTokenExpired
		}

		// The guarded update is what makes concurrent consumers lose.
		result := tx.Model(&entities.PasswordResetToken{}).
			Where("id = ? AND used_at IS NULL", token.ID).
			Update("used_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTokenUsed
		}

		return apply(tx, token.UserID)
	})
}

// Revoke remembers a session token id until expiresAt.
func (r *Repository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entities.RevokedToken{JTI: jti, ExpiresAt: expiresAt.UTC()}).Error
}

// IsRevoked reports whether the token id was revoked.
func (r *Repository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.RevokedToken{}).Where("jti = ?", jti).Count(&n).Error
	return n > 0, err
}

// DeleteExpired purges reset tokens and revocations that expired before now.
// Used reset tokens stay until they expire so reuse is reported as such.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (resetTokens, revoked int64, err error) {
	now = now.UTC()
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("expires_at < ?", now).Delete(&entities.PasswordResetToken{})
		if result.Error != nil {
			return result.Error
		}
		resetTokens = result.RowsAffected

		result = tx.Where("expires_at < ?", now).Delete(&entities.RevokedToken{})
		if result.Error != nil {
			return result.Error
		}
		revoked = result.RowsAffected
		return nil
	})
	return resetTokens, revoked, err
}
