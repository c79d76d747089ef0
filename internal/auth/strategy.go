package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/devops-offer/offer/internal/entities"
)

// TokenAudience is the aud claim of every session token.
const TokenAudience = "devops-offer:auth"

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// RevocationStore remembers revoked token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Claims are the registered JWT claims carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrTokenInvalid
	}
	return uint(id), nil
}

// JWTStrategy issues and verifies HS256 session tokens. Both the bearer and
// the cookie backend share one strategy.
type JWTStrategy struct {
	secret      []byte
	lifetime    time.Duration
	revocations RevocationStore
	now         func() time.Time
}

// NewJWTStrategy creates a strategy. revocations may be nil, in which case
// DestroyToken is a no-op.
func NewJWTStrategy(secret string, lifetime time.Duration, revocations RevocationStore) *JWTStrategy {
	return &JWTStrategy{
		secret:      []byte(secret),
		lifetime:    lifetime,
		revocations: revocations,
		now:         time.Now,
	}
}

// Lifetime is how long issued tokens stay valid.
func (s *JWTStrategy) Lifetime() time.Duration {
	return s.lifetime
}

// WriteToken issues a token for the user.
func (s *JWTStrategy) WriteToken(user *entities.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.lifetime)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// ReadToken verifies signature, audience, expiry and revocation.
func (s *JWTStrategy) ReadToken(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return nil, err
	}

	if s.revocations != nil && claims.ID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// DestroyToken revokes a valid token until its natural expiry. Tokens that
// are already invalid need no revocation.
func (s *JWTStrategy) DestroyToken(ctx context.Context, raw string) error {
	if s.revocations == nil {
		return nil
	}
	claims, err := s.parse(raw)
	if err != nil {
		return nil
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *JWTStrategy) parse(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
		return &claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}
