// Package context carries request-scoped identity through the request
// context.
package context

import (
	"context"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/model"
)

type contextKey int

const scopeKey contextKey = iota

// scope is a mutable per-request holder, installed once at the top of the
// middleware chain. Mutability lets outer middleware observe values set by
// inner handlers, the same way chi exposes its route context.
type scope struct {
	principal *model.Principal
	projectID *uuid.UUID
}

// Manager implements model.ContextManager over a per-request scope.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Inject installs an empty scope. Must run before any Set call on the
// request path.
func (m *Manager) Inject(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey, &scope{})
}

func getScope(ctx context.Context) (*scope, bool) {
	s, ok := ctx.Value(scopeKey).(*scope)
	return s, ok
}

// SetPrincipal attaches the authenticated principal to the request scope.
func (m *Manager) SetPrincipal(ctx context.Context, p model.Principal) context.Context {
	if s, ok := getScope(ctx); ok {
		s.principal = &p
		return ctx
	}
	ctx = m.Inject(ctx)
	s, _ := getScope(ctx)
	s.principal = &p
	return ctx
}

// GetPrincipal retrieves the authenticated principal, if any.
func (m *Manager) GetPrincipal(ctx context.Context) (model.Principal, bool) {
	if s, ok := getScope(ctx); ok && s.principal != nil {
		return *s.principal, true
	}
	return model.Principal{}, false
}

// SetProjectID attaches the resolved project ID for audit and analytics
// attribution.
func (m *Manager) SetProjectID(ctx context.Context, projectID uuid.UUID) context.Context {
	if s, ok := getScope(ctx); ok {
		s.projectID = &projectID
		return ctx
	}
	ctx = m.Inject(ctx)
	s, _ := getScope(ctx)
	s.projectID = &projectID
	return ctx
}

// GetProjectID retrieves the resolved project ID, if any.
func (m *Manager) GetProjectID(ctx context.Context) (uuid.UUID, bool) {
	if s, ok := getScope(ctx); ok && s.projectID != nil {
		return *s.projectID, true
	}
	return uuid.Nil, false
}

var _ model.ContextManager = (*Manager)(nil)
