package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
	"github.com/sidstack/sidmemo-server/internal/service"
)

// AuthService defines account, session and API key operations.
type AuthService interface {
	Register(ctx context.Context, email, name, password string) (service.SessionPair, error)
	Login(ctx context.Context, email, password string) (service.SessionPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, model.User, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, name, currentPassword, newPassword string) (model.User, error)
	CreateApiKey(ctx context.Context, userID uuid.UUID, name string, scopes []string, expiresAt *time.Time) (service.ApiKeyCreated, error)
	ListApiKeys(ctx context.Context, userID uuid.UUID) ([]model.ApiKey, error)
	DeleteApiKey(ctx context.Context, userID, keyID uuid.UUID) error
}

// Auth handles HTTP endpoints for authentication and API keys.
type Auth struct {
	auth           AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(auth AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		auth:           auth,
		contextManager: contextManager,
		logger:         logger,
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         userResponse `json:"user"`
}

// Register creates an account. The first registered account becomes the
// instance superadmin.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.logger.Debug("Auth handler: registration failed",
			"email", req.Email,
			"error", err.Error())
		handleError(w, err)
		return
	}

	h.logger.Info("Auth handler: user registered", "user_id", session.User.ID)
	respondJSON(w, http.StatusCreated, sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         toUserResponse(session.User),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates with email and password.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Auth handler: login failed",
			"email", req.Email,
			"error", err.Error())
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         toUserResponse(session.User),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself stays valid until its expiry or explicit revocation.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, user, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{
		AccessToken: accessToken,
		User:        toUserResponse(user),
	})
}

// Logout revokes the presented refresh token. Revoking an already revoked
// or unknown token succeeds.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Me returns the authenticated user's profile.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(h.contextManager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	user, err := h.auth.GetProfile(r.Context(), principal.User.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

type updateProfileRequest struct {
	Name            string `json:"name"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"omitempty,min=8"`
}

// UpdateMe updates the profile. A password change requires the current
// password and revokes all refresh tokens.
func (h *Auth) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(h.contextManager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), principal.User.ID, req.Name, req.CurrentPassword, req.NewPassword)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

type createApiKeyRequest struct {
	Name      string     `json:"name" validate:"required"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type createApiKeyResponse struct {
	apiKeyResponse
	Key string `json:"key"`
}

// CreateApiKey creates an API key. The raw key is returned once and only
// its digest is stored.
func (h *Auth) CreateApiKey(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(h.contextManager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	var req createApiKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.auth.CreateApiKey(r.Context(), principal.User.ID, req.Name, req.Scopes, req.ExpiresAt)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("Auth handler: api key created",
		"user_id", principal.User.ID,
		"key_id", created.Key.ID)
	respondJSON(w, http.StatusCreated, createApiKeyResponse{
		apiKeyResponse: toApiKeyResponse(created.Key),
		Key:            created.Raw,
	})
}

// ListApiKeys lists the caller's API keys without their secrets.
func (h *Auth) ListApiKeys(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(h.contextManager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	keys, err := h.auth.ListApiKeys(r.Context(), principal.User.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]apiKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, toApiKeyResponse(k))
	}
	respondJSON(w, http.StatusOK, map[string]any{"keys": out})
}

// DeleteApiKey removes one of the caller's API keys.
func (h *Auth) DeleteApiKey(w http.ResponseWriter, r *http.Request) {
	principal, err := currentPrincipal(h.contextManager, r)
	if err != nil {
		handleError(w, err)
		return
	}

	keyID, err := uuidParam(r, "keyID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid key id")
		return
	}

	if err := h.auth.DeleteApiKey(r.Context(), principal.User.ID, keyID); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
