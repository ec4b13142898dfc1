package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sidstack/sidmemo-server/internal/model"
)

type userResponse struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	IsActive     bool      `json:"is_active"`
	IsSuperadmin bool      `json:"is_superadmin"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		IsActive:     u.IsActive,
		IsSuperadmin: u.IsSuperadmin,
		CreatedAt:    u.CreatedAt,
	}
}

type apiKeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	Scopes     []string   `json:"scopes"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toApiKeyResponse(k model.ApiKey) apiKeyResponse {
	return apiKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		KeyPrefix:  k.KeyPrefix,
		Scopes:     k.Scopes,
		LastUsedAt: k.LastUsedAt,
		ExpiresAt:  k.ExpiresAt,
		CreatedAt:  k.CreatedAt,
	}
}

type projectResponse struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectResponse(p model.Project, role model.Role) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		Role:        string(role),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type configResponse struct {
	LLMConfig         json.RawMessage `json:"llm_config"`
	EmbedderConfig    json.RawMessage `json:"embedder_config"`
	VectorStoreConfig json.RawMessage `json:"vector_store_config"`
	GraphStoreConfig  json.RawMessage `json:"graph_store_config"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func toConfigResponse(c model.ProjectConfig) configResponse {
	return configResponse{
		LLMConfig:         c.LLMConfig,
		EmbedderConfig:    c.EmbedderConfig,
		VectorStoreConfig: c.VectorStoreConfig,
		GraphStoreConfig:  c.GraphStoreConfig,
		UpdatedAt:         c.UpdatedAt,
	}
}

type memberResponse struct {
	UserID    uuid.UUID  `json:"user_id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	InvitedBy *uuid.UUID `json:"invited_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toMemberResponse(m model.MemberWithUser) memberResponse {
	return memberResponse{
		UserID:    m.UserID,
		Email:     m.Email,
		Name:      m.Name,
		Role:      string(m.Role),
		InvitedBy: m.InvitedBy,
		CreatedAt: m.CreatedAt,
	}
}

type webhookResponse struct {
	ID              uuid.UUID  `json:"id"`
	URL             string     `json:"url"`
	Events          []string   `json:"events"`
	IsActive        bool       `json:"is_active"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	LastStatusCode  *int       `json:"last_status_code,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toWebhookResponse(w model.Webhook) webhookResponse {
	return webhookResponse{
		ID:              w.ID,
		URL:             w.URL,
		Events:          w.Events,
		IsActive:        w.IsActive,
		LastTriggeredAt: w.LastTriggeredAt,
		LastStatusCode:  w.LastStatusCode,
		CreatedAt:       w.CreatedAt,
	}
}

type deliveryResponse struct {
	ID           uuid.UUID       `json:"id"`
	Event        string          `json:"event"`
	Payload      json.RawMessage `json:"payload"`
	StatusCode   *int            `json:"status_code,omitempty"`
	ResponseBody *string         `json:"response_body,omitempty"`
	AttemptCount int             `json:"attempt_count"`
	NextRetryAt  *time.Time      `json:"next_retry_at,omitempty"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toDeliveryResponse(d model.WebhookDelivery) deliveryResponse {
	return deliveryResponse{
		ID:           d.ID,
		Event:        d.Event,
		Payload:      d.Payload,
		StatusCode:   d.StatusCode,
		ResponseBody: d.ResponseBody,
		AttemptCount: d.AttemptCount,
		NextRetryAt:  d.NextRetryAt,
		DeliveredAt:  d.DeliveredAt,
		CreatedAt:    d.CreatedAt,
	}
}

type memoryResponse struct {
	ID         uuid.UUID       `json:"id"`
	UserKey    string          `json:"user_id"`
	AgentKey   *string         `json:"agent_id,omitempty"`
	RunKey     *string         `json:"run_id,omitempty"`
	Content    string          `json:"memory"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Categories []string        `json:"categories,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func toMemoryResponse(m model.MemoryRecord) memoryResponse {
	return memoryResponse{
		ID:         m.ID,
		UserKey:    m.UserKey,
		AgentKey:   m.AgentKey,
		RunKey:     m.RunKey,
		Content:    m.Content,
		Metadata:   m.Metadata,
		Categories: m.Categories,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type searchResultResponse struct {
	memoryResponse
	Score float64 `json:"score"`
}

func toSearchResultResponse(r model.MemorySearchResult) searchResultResponse {
	return searchResultResponse{memoryResponse: toMemoryResponse(r.Record), Score: r.Score}
}

type historyResponse struct {
	ID        uuid.UUID       `json:"id"`
	Content   string          `json:"memory"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	ChangedBy *uuid.UUID      `json:"changed_by,omitempty"`
	ChangedAt time.Time       `json:"changed_at"`
}

func toHistoryResponse(h model.MemoryHistory) historyResponse {
	return historyResponse{
		ID:        h.ID,
		Content:   h.Content,
		Metadata:  h.Metadata,
		ChangedBy: h.ChangedBy,
		ChangedAt: h.ChangedAt,
	}
}

type auditResponse struct {
	ID         uuid.UUID       `json:"id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
	ActorType  string          `json:"actor_type"`
	ProjectID  *uuid.UUID      `json:"project_id,omitempty"`
	Action     string          `json:"action"`
	TargetType *string         `json:"target_type,omitempty"`
	TargetID   *string         `json:"target_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toAuditResponse(e model.AuditEntry) auditResponse {
	return auditResponse{
		ID:         e.ID,
		ActorID:    e.ActorID,
		ActorType:  e.ActorType,
		ProjectID:  e.ProjectID,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Payload:    e.Payload,
		CreatedAt:  e.CreatedAt,
	}
}
