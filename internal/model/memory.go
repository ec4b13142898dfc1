package model

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MemoryEngine is the opaque external memory service. The control plane
// passes operations through and treats results as engine-owned data.
type MemoryEngine interface {
	Add(ctx context.Context, collection string, req MemoryAddRequest) ([]MemoryRecord, error)
	Get(ctx context.Context, collection string, id uuid.UUID) (MemoryRecord, error)
	Search(ctx context.Context, collection string, query string, userKey string, limit int) ([]MemorySearchResult, error)
	Update(ctx context.Context, collection string, id uuid.UUID, content string, metadata json.RawMessage) (MemoryRecord, error)
	Delete(ctx context.Context, collection string, id uuid.UUID) error
	DeleteAll(ctx context.Context, collection string, userKey string) (int, error)
	DropCollection(ctx context.Context, collection string) error
	Ping(ctx context.Context) error
}

// MemoryAddRequest carries the engine inputs for a memory add.
type MemoryAddRequest struct {
	Content  string
	UserKey  string
	AgentKey string
	RunKey   string
	Metadata json.RawMessage
}

// MemoryRecord mirrors an engine-held memory row in the relational store so
// listing and history survive engine round-trips.
type MemoryRecord struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	UserKey    string
	AgentKey   *string
	RunKey     *string
	Content    string
	Metadata   json.RawMessage
	Categories []string
	Score      *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MemorySearchResult is one engine search hit.
type MemorySearchResult struct {
	Record MemoryRecord
	Score  float64
}

// MemoryStore is the relational mirror of engine-held memories.
type MemoryStore interface {
	Upsert(ctx context.Context, record MemoryRecord) (MemoryRecord, error)
	GetByID(ctx context.Context, projectID, id uuid.UUID) (MemoryRecord, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, userKey string, offset, limit int) ([]MemoryRecord, int, error)
	Delete(ctx context.Context, projectID, id uuid.UUID) error
	DeleteByUserKey(ctx context.Context, projectID uuid.UUID, userKey string) (int, error)
	Count(ctx context.Context) (int, error)

	AppendHistory(ctx context.Context, h MemoryHistory) error
	ListHistory(ctx context.Context, memoryID uuid.UUID) ([]MemoryHistory, error)
}

// MemoryHistory is one content revision of a memory.
type MemoryHistory struct {
	ID        uuid.UUID
	MemoryID  uuid.UUID
	Content   string
	Metadata  json.RawMessage
	ChangedBy *uuid.UUID
	ChangedAt time.Time
}
