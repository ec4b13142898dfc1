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

// Auth implements account registration, credential login, and API key
// management. Both credential paths resolve to a model.Principal consumed by
// the request middleware.
type Auth struct {
	userStore   model.UserStore
	apiKeyStore model.ApiKeyStore
	tokens      *TokenService
	hasher      security.PasswordHasher
	logger      *logger.Logger
}

func NewAuth(
	userStore model.UserStore,
	apiKeyStore model.ApiKeyStore,
	tokens *TokenService,
	hasher security.PasswordHasher,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:   userStore,
		apiKeyStore: apiKeyStore,
		tokens:      tokens,
		hasher:      hasher,
		logger:      logger,
	}
}

// SessionPair is the result of a successful registration or login.
type SessionPair struct {
	User         model.User
	AccessToken  string
	RefreshToken string
}

// Register creates an account and opens a session. The very first account
// becomes superadmin.
func (a *Auth) Register(ctx context.Context, email, name, password string) (SessionPair, error) {
	a.logger.Debug("Auth service: registering user", "email", email)

	existing, err := a.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email", "email", email, "error", err.Error())
		return SessionPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	if existing.ID != uuid.Nil {
		a.logger.Info("Auth service: email already taken", "email", email)
		return SessionPair{}, model.ErrConflict
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return SessionPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	total, err := a.userStore.Count(ctx)
	if err != nil {
		return SessionPair{}, fmt.Errorf("failed to count users: %w", err)
	}

	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperadmin: total == 0,
	})
	if err != nil {
		a.logger.Error("Auth service: failed to create user", "email", email, "error", err.Error())
		return SessionPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	access, refresh, err := a.tokens.Issue(ctx, user.ID)
	if err != nil {
		return SessionPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: user registered", "user_id", user.ID, "superadmin", user.IsSuperadmin)
	return SessionPair{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Login verifies credentials and opens a session. Unknown emails, wrong
// passwords, and disabled accounts are indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, email, password string) (SessionPair, error) {
	a.logger.Debug("Auth service: login attempt", "email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return SessionPair{}, model.ErrUnauthorized
		}
		return SessionPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		a.logger.Info("Auth service: invalid password", "email", email)
		return SessionPair{}, model.ErrUnauthorized
	}
	if !user.IsActive {
		a.logger.Info("Auth service: login on disabled account", "user_id", user.ID)
		return SessionPair{}, model.ErrUnauthorized
	}

	access, refresh, err := a.tokens.Issue(ctx, user.ID)
	if err != nil {
		return SessionPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	return SessionPair{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token. The account must
// still be active.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (string, model.User, error) {
	access, userID, err := a.tokens.Redeem(ctx, refreshToken)
	if err != nil {
		return "", model.User{}, err
	}

	user, err := a.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.User{}, model.ErrUnauthorized
		}
		return "", model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	if !user.IsActive {
		return "", model.User{}, model.ErrUnauthorized
	}

	return access, user, nil
}

// Logout revokes the presented refresh token.
func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	return a.tokens.Revoke(ctx, refreshToken)
}

// GetProfile returns the user's own account.
func (a *Auth) GetProfile(ctx context.Context, userID uuid.UUID) (model.User, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// UpdateProfile changes display name and, when newPassword is set, the
// password. Password changes require the current password and revoke every
// open session.
func (a *Auth) UpdateProfile(ctx context.Context, userID uuid.UUID, name, currentPassword, newPassword string) (model.User, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if name != "" {
		user.Name = name
	}

	if newPassword != "" {
		if !a.hasher.Verify(currentPassword, user.PasswordHash) {
			return model.User{}, model.ErrUnauthorized
		}
		hash, err := a.hasher.Hash(newPassword)
		if err != nil {
			return model.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	updated, err := a.userStore.Update(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	// Sessions are revoked only once the new password is persisted.
	if newPassword != "" {
		if err := a.tokens.RevokeAll(ctx, userID); err != nil {
			return model.User{}, err
		}
	}
	return updated, nil
}

// ApiKeyCreated pairs a stored key row with the raw secret, which is
// returned to the caller exactly once.
type ApiKeyCreated struct {
	Key model.ApiKey
	Raw string
}

// CreateApiKey mints a new API key for the user.
func (a *Auth) CreateApiKey(ctx context.Context, userID uuid.UUID, name string, scopes []string, expiresAt *time.Time) (ApiKeyCreated, error) {
	raw, prefix, err := security.GenerateApiKey()
	if err != nil {
		return ApiKeyCreated{}, fmt.Errorf("failed to generate api key: %w", err)
	}

	key, err := a.apiKeyStore.Create(ctx, model.ApiKey{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		KeyHash:   security.DigestToken(raw),
		KeyPrefix: prefix,
		Scopes:    scopes,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return ApiKeyCreated{}, fmt.Errorf("failed to create api key: %w", err)
	}

	a.logger.Info("Auth service: api key created", "user_id", userID, "key_id", key.ID)
	return ApiKeyCreated{Key: key, Raw: raw}, nil
}

// ListApiKeys returns the user's keys, digests included but never raw
// secrets.
func (a *Auth) ListApiKeys(ctx context.Context, userID uuid.UUID) ([]model.ApiKey, error) {
	keys, err := a.apiKeyStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

// DeleteApiKey removes one of the user's own keys.
func (a *Auth) DeleteApiKey(ctx context.Context, userID, keyID uuid.UUID) error {
	if err := a.apiKeyStore.Delete(ctx, keyID, userID); err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	a.logger.Info("Auth service: api key deleted", "user_id", userID, "key_id", keyID)
	return nil
}

// ResolveAccessToken authenticates a bearer JWT into a principal.
func (a *Auth) ResolveAccessToken(ctx context.Context, token string) (model.Principal, error) {
	userID, err := a.tokens.manager.ParseAccessToken(token)
	if err != nil {
		return model.Principal{}, model.ErrUnauthorized
	}

	user, err := a.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Principal{}, model.ErrUnauthorized
		}
		return model.Principal{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	if !user.IsActive {
		return model.Principal{}, model.ErrUnauthorized
	}

	return model.Principal{User: user}, nil
}

// ResolveApiKey authenticates a raw API key into a principal. A valid key
// delegates the full permissions of its owner; scopes are informational.
func (a *Auth) ResolveApiKey(ctx context.Context, rawKey string) (model.Principal, error) {
	key, err := a.apiKeyStore.GetByDigest(ctx, security.DigestToken(rawKey))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Principal{}, model.ErrUnauthorized
		}
		return model.Principal{}, fmt.Errorf("failed to get api key: %w", err)
	}

	if key.Expired(time.Now()) {
		return model.Principal{}, model.ErrKeyExpired
	}

	user, err := a.userStore.GetByID(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Principal{}, model.ErrUnauthorized
		}
		return model.Principal{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	if !user.IsActive {
		return model.Principal{}, model.ErrUnauthorized
	}

	// Usage tracking never blocks authentication.
	if err := a.apiKeyStore.TouchLastUsed(ctx, key.ID, time.Now()); err != nil {
		a.logger.Error("Auth service: failed to touch api key", "key_id", key.ID, "error", err.Error())
	}

	return model.Principal{User: user, ApiKeyID: &key.ID}, nil
}
