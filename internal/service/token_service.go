package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/security"
)

// TokenService provides high-level operations for issuing, redeeming, and
// revoking session tokens. Access tokens are signed JWTs; refresh tokens are
// opaque random strings stored by digest.
type TokenService struct {
	manager    model.TokenManager
	store      model.RefreshTokenStore
	refreshTTL time.Duration
	logger     *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, refreshTTL time.Duration, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, refreshTTL: refreshTTL, logger: logger}
}

// Issue creates a new access/refresh pair for the user. The raw refresh
// token leaves the server exactly once, here.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (accessToken string, refreshToken string, err error) {
	access, err := s.manager.GenerateAccessToken(userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, err := security.GenerateSecret(security.RefreshTokenBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	rt := model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: security.DigestToken(refresh),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}

	if err := s.store.Create(ctx, rt); err != nil {
		return "", "", fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return access, refresh, nil
}

// Redeem exchanges a valid refresh token for a fresh access token. The
// refresh token stays valid until it expires or is revoked; redeeming does
// not rotate it.
func (s *TokenService) Redeem(ctx context.Context, presentedRefresh string) (string, uuid.UUID, error) {
	rt, err := s.store.GetByDigest(ctx, security.DigestToken(presentedRefresh))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", uuid.Nil, model.ErrUnauthorized
		}
		return "", uuid.Nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	now := time.Now()
	if rt.RevokedAt != nil {
		return "", uuid.Nil, model.ErrTokenRevoked
	}
	if !now.Before(rt.ExpiresAt) {
		return "", uuid.Nil, model.ErrTokenExpired
	}

	access, err := s.manager.GenerateAccessToken(rt.UserID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return access, rt.UserID, nil
}

// Revoke invalidates a refresh token. Revoking an unknown or already revoked
// token succeeds silently so logout is idempotent.
func (s *TokenService) Revoke(ctx context.Context, presentedRefresh string) error {
	revoked, err := s.store.Revoke(ctx, security.DigestToken(presentedRefresh), time.Now())
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !revoked {
		s.logger.Debug("Token service: revoke of unknown or already revoked token")
	}
	return nil
}

// RevokeAll invalidates every refresh token of the user.
func (s *TokenService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.RevokeAllByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return nil
}
