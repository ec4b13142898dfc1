package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore defines persistence operations for refresh tokens.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByDigest(ctx context.Context, digest string) (RefreshToken, error)
	// Revoke sets revoked_at once. It reports false when the token was
	// already revoked or does not exist.
	Revoke(ctx context.Context, digest string, at time.Time) (bool, error)
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
}

// RefreshToken is a long-lived opaque credential. Only the SHA-256 digest of
// the raw token persists. Revocation is monotonic.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Valid reports whether the token is unrevoked and unexpired at now.
func (t RefreshToken) Valid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
