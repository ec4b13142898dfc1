package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/service"
	"github.com/sidstack/sidmemo-server/internal/testutil"
)

type authServiceStub struct {
	registerFn     func(email, name, password string) (service.SessionPair, error)
	loginFn        func(email, password string) (service.SessionPair, error)
	refreshFn      func(token string) (string, model.User, error)
	createApiKeyFn func(userID uuid.UUID, name string) (service.ApiKeyCreated, error)
	profileFn      func(userID uuid.UUID) (model.User, error)
}

func (s *authServiceStub) Register(_ context.Context, email, name, password string) (service.SessionPair, error) {
	return s.registerFn(email, name, password)
}

func (s *authServiceStub) Login(_ context.Context, email, password string) (service.SessionPair, error) {
	return s.loginFn(email, password)
}

func (s *authServiceStub) Refresh(_ context.Context, token string) (string, model.User, error) {
	return s.refreshFn(token)
}

func (s *authServiceStub) Logout(_ context.Context, _ string) error { return nil }

func (s *authServiceStub) GetProfile(_ context.Context, userID uuid.UUID) (model.User, error) {
	return s.profileFn(userID)
}

func (s *authServiceStub) UpdateProfile(_ context.Context, userID uuid.UUID, name, _, _ string) (model.User, error) {
	return model.User{ID: userID, Name: name}, nil
}

func (s *authServiceStub) CreateApiKey(_ context.Context, userID uuid.UUID, name string, _ []string, _ *time.Time) (service.ApiKeyCreated, error) {
	return s.createApiKeyFn(userID, name)
}

func (s *authServiceStub) ListApiKeys(_ context.Context, _ uuid.UUID) ([]model.ApiKey, error) {
	return nil, nil
}

func (s *authServiceStub) DeleteApiKey(_ context.Context, _, _ uuid.UUID) error { return nil }

func TestAuth_Register(t *testing.T) {
	user := model.User{ID: uuid.New(), Email: "a@b.com", Name: "Ada", IsSuperadmin: true}
	stub := &authServiceStub{
		registerFn: func(email, name, password string) (service.SessionPair, error) {
			assert.Equal(t, "a@b.com", email)
			assert.Equal(t, "Ada", name)
			return service.SessionPair{User: user, AccessToken: "acc", RefreshToken: "ref"}, nil
		},
	}
	h := NewAuth(stub, newContextManager(), testutil.MakeNoopLogger())

	body := `{"email":"a@b.com","name":"Ada","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			Email        string `json:"email"`
			IsSuperadmin bool   `json:"is_superadmin"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "acc", resp.AccessToken)
	assert.Equal(t, "ref", resp.RefreshToken)
	assert.True(t, resp.User.IsSuperadmin)
}

func TestAuth_Register_EmailTaken(t *testing.T) {
	stub := &authServiceStub{
		registerFn: func(_, _, _ string) (service.SessionPair, error) {
			return service.SessionPair{}, model.ErrConflict
		},
	}
	h := NewAuth(stub, newContextManager(), testutil.MakeNoopLogger())

	body := `{"email":"a@b.com","name":"Ada","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuth_Register_ShortPassword(t *testing.T) {
	h := NewAuth(&authServiceStub{}, newContextManager(), testutil.MakeNoopLogger())

	body := `{"email":"a@b.com","name":"Ada","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_Login_BadCredentials(t *testing.T) {
	stub := &authServiceStub{
		loginFn: func(_, _ string) (service.SessionPair, error) {
			return service.SessionPair{}, model.ErrUnauthorized
		},
	}
	h := NewAuth(stub, newContextManager(), testutil.MakeNoopLogger())

	body := `{"email":"a@b.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_Refresh_ReturnsAccessOnly(t *testing.T) {
	user := model.User{ID: uuid.New(), Email: "a@b.com"}
	stub := &authServiceStub{
		refreshFn: func(token string) (string, model.User, error) {
			assert.Equal(t, "the-refresh", token)
			return "new-access", user, nil
		},
	}
	h := NewAuth(stub, newContextManager(), testutil.MakeNoopLogger())

	body := `{"refresh_token":"the-refresh"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "new-access", resp["access_token"])
	// The presented refresh token stays valid, so no new one is issued.
	assert.NotContains(t, resp, "refresh_token")
}

func TestAuth_Me_RequiresPrincipal(t *testing.T) {
	h := NewAuth(&authServiceStub{}, newContextManager(), testutil.MakeNoopLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_CreateApiKey_ReturnsRawOnce(t *testing.T) {
	userID := uuid.New()
	stub := &authServiceStub{
		createApiKeyFn: func(gotUserID uuid.UUID, name string) (service.ApiKeyCreated, error) {
			assert.Equal(t, userID, gotUserID)
			assert.Equal(t, "ci", name)
			return service.ApiKeyCreated{
				Key: model.ApiKey{ID: uuid.New(), Name: name, KeyPrefix: "smk_abcd"},
				Raw: "smk_abcdrestofthekey",
			}, nil
		},
	}
	cm := newContextManager()
	h := NewAuth(stub, cm, testutil.MakeNoopLogger())

	body := `{"name":"ci"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/keys", strings.NewReader(body))
	req = authed(cm, req, model.Principal{User: model.User{ID: userID}})
	rec := httptest.NewRecorder()
	h.CreateApiKey(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "smk_abcdrestofthekey", resp["key"])
	assert.Equal(t, "smk_abcd", resp["key_prefix"])
}
