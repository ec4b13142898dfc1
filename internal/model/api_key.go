package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ApiKeyStore defines persistence operations for API keys.
type ApiKeyStore interface {
	Create(ctx context.Context, key ApiKey) (ApiKey, error)
	GetByDigest(ctx context.Context, digest string) (ApiKey, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]ApiKey, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ApiKey stores only the one-way digest of the raw secret. The raw key is
// returned to the caller exactly once, at creation.
//
// Scopes are persisted and surfaced but not enforced during authentication;
// a presented key delegates the full permissions of its owner.
type ApiKey struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	KeyHash    string
	KeyPrefix  string
	Scopes     []string
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
	CreatedAt  time.Time
}

// Expired reports whether the key has an expiry in the past.
func (k ApiKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}
