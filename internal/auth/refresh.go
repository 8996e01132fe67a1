package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked or expired")
	ErrRefreshTokenMismatch = errors.New("refresh token does not match")
)

// RefreshToken is the stored half of a refresh token: only its hash is kept.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

type RefreshStore interface {
	Create(ctx context.Context, t RefreshToken) error
	Rotate(ctx context.Context, oldID, oldHash string, next RefreshToken) error
	// Revoke is idempotent; an unknown id is not an error.
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}
