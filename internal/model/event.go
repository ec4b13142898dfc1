package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventStore persists per-request API usage events for analytics.
type EventStore interface {
	Create(ctx context.Context, event APIEvent) error
	Summarize(ctx context.Context, projectID uuid.UUID, since time.Time) (UsageSummary, error)
}

// APIEvent is one recorded API call attributed to a project and principal.
type APIEvent struct {
	ID         int64
	ProjectID  *uuid.UUID
	UserID     *uuid.UUID
	ApiKeyID   *uuid.UUID
	Method     string
	Path       string
	Action     string
	StatusCode int
	LatencyMS  int
	CreatedAt  time.Time
}

// UsageSummary aggregates API events over a window.
type UsageSummary struct {
	TotalRequests  int
	ErrorRequests  int
	AvgLatencyMS   float64
	CountsByAction map[string]int
}
