package model

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProjectStore defines persistence operations for projects and their configs.
type ProjectStore interface {
	Create(ctx context.Context, project Project, config ProjectConfig, owner ProjectMember) (Project, error)
	GetBySlug(ctx context.Context, slug string) (Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (Project, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]ProjectWithRole, error)
	Update(ctx context.Context, project Project) (Project, error)
	Archive(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)

	GetConfig(ctx context.Context, projectID uuid.UUID) (ProjectConfig, error)
	UpdateConfig(ctx context.Context, config ProjectConfig) (ProjectConfig, error)
}

// Project is the tenant boundary. Each project owns an isolated vector-store
// collection and, optionally, a graph database.
type Project struct {
	ID               uuid.UUID
	Slug             string
	Name             string
	Description      *string
	OwnerID          uuid.UUID
	VectorCollection string
	GraphDatabase    *string
	IsArchived       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProjectWithRole pairs a project with the requesting user's role in it.
type ProjectWithRole struct {
	Project Project
	Role    Role
}

// ProjectConfig holds per-project engine configuration blocks as raw JSON.
type ProjectConfig struct {
	ID                uuid.UUID
	ProjectID         uuid.UUID
	LLMConfig         json.RawMessage
	EmbedderConfig    json.RawMessage
	VectorStoreConfig json.RawMessage
	GraphStoreConfig  json.RawMessage
	UpdatedAt         time.Time
}
