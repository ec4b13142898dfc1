package model

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventWildcard subscribes a webhook to every event fired in its project.
const EventWildcard = "*"

// WebhookStore defines persistence operations for webhook subscriptions.
type WebhookStore interface {
	Create(ctx context.Context, webhook Webhook) (Webhook, error)
	GetByID(ctx context.Context, id uuid.UUID) (Webhook, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Webhook, error)
	ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]Webhook, error)
	Update(ctx context.Context, webhook Webhook) (Webhook, error)
	// Delete cascades the webhook's delivery history.
	Delete(ctx context.Context, id uuid.UUID) error
	// RecordResult updates the denormalized last-delivery fields.
	RecordResult(ctx context.Context, id uuid.UUID, triggeredAt time.Time, statusCode *int) error
}

// Webhook is a per-project subscription. The signing secret is generated
// server-side at creation and never returned afterwards.
type Webhook struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	URL             string
	Secret          string
	Events          []string
	IsActive        bool
	LastTriggeredAt *time.Time
	LastStatusCode  *int
	CreatedAt       time.Time
}

// Matches reports whether the webhook subscribes to the event, either
// exactly or through the wildcard.
func (w Webhook) Matches(event string) bool {
	for _, e := range w.Events {
		if e == event || e == EventWildcard {
			return true
		}
	}
	return false
}

// DeliveryStore defines persistence operations for delivery attempts.
type DeliveryStore interface {
	Create(ctx context.Context, delivery WebhookDelivery) (WebhookDelivery, error)
	Update(ctx context.Context, delivery WebhookDelivery) (WebhookDelivery, error)
	ListByWebhook(ctx context.Context, webhookID uuid.UUID, limit int) ([]WebhookDelivery, error)
	// ListRetryable returns undelivered rows with attempt_count below max
	// whose next_retry_at has passed (or was never scheduled).
	ListRetryable(ctx context.Context, now time.Time, maxAttempts int) ([]WebhookDelivery, error)
}

// WebhookDelivery is one recorded POST (or attempted POST) of an event
// payload. DeliveredAt is set only on the first 2xx response; rows with
// DeliveredAt set are never touched again.
type WebhookDelivery struct {
	ID           uuid.UUID
	WebhookID    uuid.UUID
	Event        string
	Payload      json.RawMessage
	StatusCode   *int
	ResponseBody *string
	AttemptCount int
	NextRetryAt  *time.Time
	DeliveredAt  *time.Time
	CreatedAt    time.Time
}
