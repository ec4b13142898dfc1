package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sidstack/sidmemo-server/internal/mocks"
	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/security"
	"github.com/sidstack/sidmemo-server/internal/testutil"
)

func newAuthFixture(userStore *mocks.UserStore, apiKeyStore *mocks.ApiKeyStore, refreshStore *mocks.RefreshTokenStore, manager *mocks.TokenManager) *Auth {
	log := testutil.MakeNoopLogger()
	tokens := NewTokenService(manager, refreshStore, time.Hour, log)
	return NewAuth(userStore, apiKeyStore, tokens, security.NewBcryptHasher(4), log)
}

func TestAuth_Register_FirstUserIsSuperadmin(t *testing.T) {
	ctx := context.Background()
	userStore := &mocks.UserStore{}
	apiKeyStore := &mocks.ApiKeyStore{}
	refreshStore := &mocks.RefreshTokenStore{}
	manager := &mocks.TokenManager{}

	userStore.On("GetByEmail", mock.Anything, "first@example.com").Return(model.User{}, model.ErrNotFound)
	userStore.On("Count", mock.Anything).Return(0, nil)
	userStore.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.IsSuperadmin && u.IsActive
	})).Return(model.User{ID: uuid.New(), Email: "first@example.com", IsActive: true, IsSuperadmin: true}, nil)
	manager.On("GenerateAccessToken", mock.Anything).Return("access", nil)
	refreshStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	a := newAuthFixture(userStore, apiKeyStore, refreshStore, manager)
	pair, err := a.Register(ctx, "first@example.com", "First", "password1")
	require.NoError(t, err)
	assert.True(t, pair.User.IsSuperadmin)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestAuth_Register_EmailTaken(t *testing.T) {
	ctx := context.Background()
	userStore := &mocks.UserStore{}

	userStore.On("GetByEmail", mock.Anything, "taken@example.com").Return(model.User{ID: uuid.New()}, nil)

	a := newAuthFixture(userStore, &mocks.ApiKeyStore{}, &mocks.RefreshTokenStore{}, &mocks.TokenManager{})
	_, err := a.Register(ctx, "taken@example.com", "X", "password1")
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()
	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("correct-password")
	require.NoError(t, err)

	user := model.User{ID: uuid.New(), Email: "u@example.com", PasswordHash: hash, IsActive: true}

	t.Run("success", func(t *testing.T) {
		userStore := &mocks.UserStore{}
		refreshStore := &mocks.RefreshTokenStore{}
		manager := &mocks.TokenManager{}
		userStore.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
		manager.On("GenerateAccessToken", user.ID).Return("access", nil)
		refreshStore.On("Create", mock.Anything, mock.Anything).Return(nil)

		a := newAuthFixture(userStore, &mocks.ApiKeyStore{}, refreshStore, manager)
		pair, err := a.Login(ctx, user.Email, "correct-password")
		require.NoError(t, err)
		assert.Equal(t, user.ID, pair.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		userStore := &mocks.UserStore{}
		userStore.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

		a := newAuthFixture(userStore, &mocks.ApiKeyStore{}, &mocks.RefreshTokenStore{}, &mocks.TokenManager{})
		_, err := a.Login(ctx, user.Email, "wrong")
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		userStore := &mocks.UserStore{}
		userStore.On("GetByEmail", mock.Anything, mock.Anything).Return(model.User{}, model.ErrNotFound)

		a := newAuthFixture(userStore, &mocks.ApiKeyStore{}, &mocks.RefreshTokenStore{}, &mocks.TokenManager{})
		_, err := a.Login(ctx, "nobody@example.com", "correct-password")
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})

	t.Run("disabled account", func(t *testing.T) {
		disabled := user
		disabled.IsActive = false
		userStore := &mocks.UserStore{}
		userStore.On("GetByEmail", mock.Anything, user.Email).Return(disabled, nil)

		a := newAuthFixture(userStore, &mocks.ApiKeyStore{}, &mocks.RefreshTokenStore{}, &mocks.TokenManager{})
		_, err := a.Login(ctx, user.Email, "correct-password")
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})
}

func TestAuth_CreateApiKey(t *testing.T) {
	ctx := context.Background()
	userStore := &mocks.UserStore{}
	apiKeyStore := &mocks.ApiKeyStore{}
	userID := uuid.New()

	var storedHash string
	apiKeyStore.On("Create", mock.Anything, mock.MatchedBy(func(k model.ApiKey) bool {
		storedHash = k.KeyHash
		return k.UserID == userID && k.Name == "ci"
	})).Return(model.ApiKey{ID: uuid.New(), UserID: userID, Name: "ci", KeyPrefix: "smk_abcd1234"}, nil)

	a := newAuthFixture(userStore, apiKeyStore, &mocks.RefreshTokenStore{}, &mocks.TokenManager{})
	created, err := a.CreateApiKey(ctx, userID, "ci", []string{"memories:read"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, created.Raw)
	assert.Equal(t, security.DigestToken(created.Raw), storedHash)
	assert.True(t, strings.HasPrefix(created.Raw, "smk_"))
}

func TestAuth_ResolveApiKey(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	keyID := uuid.New()
	raw := "smk_rawsecret"
	user := model.User{ID: userID, IsActive: true}

	t.Run("valid key", func(t *testing.T) {
		userStore := &mocks.UserStore{}
		apiKeyStore := &mocks.ApiKeyStore{}
		apiKeyStore.On("GetByDigest", mock.Anything, security.DigestToken(raw)).Return(model.ApiKey{ID: keyID, UserID: userID}, nil)
		userStore.On("GetByID", mock.Anything, userID).Return(user, nil)
		apiKeyStore.On("TouchLastUsed", mock.Anything, keyID, mock.Anything).Return(nil)

		a := newAuthFixture(userStore, apiKeyStore, &mocks.RefreshTokenStore{}, &mocks.TokenManager{})
		principal, err := a.ResolveApiKey(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, userID, principal.User.ID)
		require.NotNil(t, principal.ApiKeyID)
		assert.Equal(t, keyID, *principal.ApiKeyID)
		apiKeyStore.AssertCalled(t, "TouchLastUsed", mock.Anything, keyID, mock.Anything)
	})

	t.Run("expired key", func(t *testing.T) {
		expired := time.Now().Add(-time.Hour)
		userStore := &mocks.UserStore{}
		apiKeyStore := &mocks.ApiKeyStore{}
		apiKeyStore.On("GetByDigest", mock.Anything, mock.Anything).Return(model.ApiKey{ID: keyID, UserID: userID, ExpiresAt: &expired}, nil)

		a := newAuthFixture(userStore, apiKeyStore, &mocks.RefreshTokenStore{}, &mocks.TokenManager{})
		_, err := a.ResolveApiKey(ctx, raw)
		assert.ErrorIs(t, err, model.ErrKeyExpired)
	})

	t.Run("touch failure does not block", func(t *testing.T) {
		userStore := &mocks.UserStore{}
		apiKeyStore := &mocks.ApiKeyStore{}
		apiKeyStore.On("GetByDigest", mock.Anything, mock.Anything).Return(model.ApiKey{ID: keyID, UserID: userID}, nil)
		userStore.On("GetByID", mock.Anything, userID).Return(user, nil)
		apiKeyStore.On("TouchLastUsed", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

		a := newAuthFixture(userStore, apiKeyStore, &mocks.RefreshTokenStore{}, &mocks.TokenManager{})
		principal, err := a.ResolveApiKey(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, userID, principal.User.ID)
	})

	t.Run("unknown key", func(t *testing.T) {
		userStore := &mocks.UserStore{}
		apiKeyStore := &mocks.ApiKeyStore{}
		apiKeyStore.On("GetByDigest", mock.Anything, mock.Anything).Return(model.ApiKey{}, model.ErrNotFound)

		a := newAuthFixture(userStore, apiKeyStore, &mocks.RefreshTokenStore{}, &mocks.TokenManager{})
		_, err := a.ResolveApiKey(ctx, raw)
		assert.ErrorIs(t, err, model.ErrUnauthorized)
	})
}

func TestAuth_UpdateProfile_PasswordChangeRevokesSessions(t *testing.T) {
	ctx := context.Background()
	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("old-password")
	require.NoError(t, err)
	userID := uuid.New()
	user := model.User{ID: userID, PasswordHash: hash, IsActive: true}

	userStore := &mocks.UserStore{}
	refreshStore := &mocks.RefreshTokenStore{}
	userStore.On("GetByID", mock.Anything, userID).Return(user, nil)
	refreshStore.On("RevokeAllByUser", mock.Anything, userID).Return(nil)
	userStore.On("Update", mock.Anything, mock.Anything).Return(user, nil)

	a := newAuthFixture(userStore, &mocks.ApiKeyStore{}, refreshStore, &mocks.TokenManager{})
	_, err = a.UpdateProfile(ctx, userID, "", "old-password", "new-password")
	require.NoError(t, err)
	refreshStore.AssertCalled(t, "RevokeAllByUser", mock.Anything, userID)

	_, err = a.UpdateProfile(ctx, userID, "", "wrong", "new-password")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAuth_UpdateProfile_FailedUpdateKeepsSessions(t *testing.T) {
	ctx := context.Background()
	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("old-password")
	require.NoError(t, err)
	userID := uuid.New()
	user := model.User{ID: userID, PasswordHash: hash, IsActive: true}

	userStore := &mocks.UserStore{}
	refreshStore := &mocks.RefreshTokenStore{}
	userStore.On("GetByID", mock.Anything, userID).Return(user, nil)
	userStore.On("Update", mock.Anything, mock.Anything).Return(model.User{}, errors.New("connection reset"))

	a := newAuthFixture(userStore, &mocks.ApiKeyStore{}, refreshStore, &mocks.TokenManager{})
	_, err = a.UpdateProfile(ctx, userID, "", "old-password", "new-password")
	require.Error(t, err)

	refreshStore.AssertNotCalled(t, "RevokeAllByUser", mock.Anything, mock.Anything)
}
