package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// Authenticator resolves presented credentials into a principal.
type Authenticator interface {
	ResolveAccessToken(ctx context.Context, token string) (model.Principal, error)
	ResolveApiKey(ctx context.Context, rawKey string) (model.Principal, error)
}

// Authenticate validates request credentials and injects the principal into
// the request context. A Bearer token wins when both credentials are
// present; the API key is not consulted as a fallback.
type Authenticate struct {
	auth           Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(auth Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{auth: auth, contextManager: contextManager, logger: logger}
}

// Handle wraps next with credential validation.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.authenticate(r)
		if err != nil {
			m.logger.Debug("Authenticate middleware: rejected request",
				"path", r.URL.Path, "error", err.Error())
			writeUnauthorized(w, err)
			return
		}

		ctx := m.contextManager.SetPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Authenticate) authenticate(r *http.Request) (model.Principal, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			return model.Principal{}, model.ErrUnauthorized
		}
		return m.auth.ResolveAccessToken(r.Context(), token)
	}

	if rawKey := r.Header.Get("X-API-Key"); rawKey != "" {
		return m.auth.ResolveApiKey(r.Context(), rawKey)
	}

	return model.Principal{}, model.ErrUnauthorized
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	message := "invalid or missing credentials"
	if errors.Is(err, model.ErrKeyExpired) {
		message = "api key expired"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
