package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/logger"
	"github.com/sidstack/sidmemo-server/internal/model"
)

// Audit records privileged actions. Recording is best-effort: a failed write
// is logged and swallowed so the action that triggered it still succeeds.
type Audit struct {
	store  model.AuditStore
	logger *logger.Logger
}

func NewAudit(store model.AuditStore, logger *logger.Logger) *Audit {
	return &Audit{store: store, logger: logger}
}

// Record writes one audit entry. It never returns an error.
func (a *Audit) Record(ctx context.Context, entry model.AuditEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ActorType == "" {
		entry.ActorType = "user"
	}

	if err := a.store.Create(ctx, entry); err != nil {
		a.logger.Error("Audit service: failed to record entry",
			"action", entry.Action, "error", err.Error())
	}
}

// RecordAction is the common case: an authenticated principal acting on one
// target inside a project.
func (a *Audit) RecordAction(ctx context.Context, principal model.Principal, projectID *uuid.UUID, action, targetType, targetID string, payload any) {
	entry := model.AuditEntry{
		ActorID:   &principal.User.ID,
		ProjectID: projectID,
		Action:    action,
	}
	if principal.ApiKeyID != nil {
		entry.ActorType = "api_key"
	}
	if targetType != "" {
		entry.TargetType = &targetType
	}
	if targetID != "" {
		entry.TargetID = &targetID
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			a.logger.Error("Audit service: failed to marshal payload",
				"action", action, "error", err.Error())
		} else {
			entry.Payload = data
		}
	}

	a.Record(ctx, entry)
}

// List pages through recorded entries.
func (a *Audit) List(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	entries, total, err := a.store.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, total, nil
}
