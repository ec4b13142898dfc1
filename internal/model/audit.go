package model

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditStore persists append-only audit entries. Entries are never updated
// or deleted by the system.
type AuditStore interface {
	Create(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, int, error)
}

// AuditEntry records a privileged action and its actor.
type AuditEntry struct {
	ID         uuid.UUID
	ActorID    *uuid.UUID
	ActorType  string
	ProjectID  *uuid.UUID
	Action     string
	TargetType *string
	TargetID   *string
	Payload    json.RawMessage
	IPAddress  *string
	CreatedAt  time.Time
}

// AuditFilter narrows audit listing. Zero values mean no restriction.
type AuditFilter struct {
	ProjectID *uuid.UUID
	ActorID   *uuid.UUID
	Action    string
	Offset    int
	Limit     int
}
