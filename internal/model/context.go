package model

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated identity attached to a request. ApiKeyID is
// set only when authentication used an API key.
type Principal struct {
	User     User
	ApiKeyID *uuid.UUID
}

// ContextManager injects and extracts request-scoped identity and project
// attribution used downstream for audit and analytics.
type ContextManager interface {
	// Inject installs the request scope; runs once at the top of the
	// middleware chain.
	Inject(ctx context.Context) context.Context
	SetPrincipal(ctx context.Context, p Principal) context.Context
	GetPrincipal(ctx context.Context) (Principal, bool)
	SetProjectID(ctx context.Context, projectID uuid.UUID) context.Context
	GetProjectID(ctx context.Context) (uuid.UUID, bool)
}
